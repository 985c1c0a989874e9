package domain

import (
	"encoding/json"
	"time"
)

type EntityType string

const (
	EntityParticipation EntityType = "participation"
	EntityPayment       EntityType = "payment"
	EntityTicketBatch   EntityType = "ticket_batch"
	EntityPrize         EntityType = "prize"
	EntityDraw          EntityType = "draw"
	EntityExchangeRate  EntityType = "exchange_rate"
)

type AuditAction string

const (
	ActionCreated     AuditAction = "created"
	ActionUpdated     AuditAction = "updated"
	ActionDeleted     AuditAction = "deleted"
	ActionApproved    AuditAction = "approved"
	ActionRejected    AuditAction = "rejected"
	ActionReverted    AuditAction = "reverted"
	ActionAssigned    AuditAction = "assigned"
	ActionRevoked     AuditAction = "revoked"
	ActionCompleted   AuditAction = "completed"
	ActionRolledOver  AuditAction = "rolled_over"
	ActionForceReset  AuditAction = "force_reset"
	ActionDelivered   AuditAction = "delivered"
	ActionExpired     AuditAction = "expired"
	ActionRateFetched AuditAction = "rate_fetched"
)

// AuditEntry is one versioned row of an entity's history.
type AuditEntry struct {
	ID         uint            `json:"id"`
	EntityType EntityType      `json:"entity_type"`
	EntityID   uint            `json:"entity_id"`
	Version    int             `json:"version"`
	Action     AuditAction     `json:"action"`
	ActorID    *uint           `json:"actor_id,omitempty"`
	Snapshot   json.RawMessage `json:"snapshot"`
	CreatedAt  time.Time       `json:"created_at"`
}
