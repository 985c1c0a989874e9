package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentApproved PaymentStatus = "APPROVED"
	PaymentRejected PaymentStatus = "REJECTED"
)

// CanTransitionTo reports whether an admin may move a payment from s to next.
// REJECTED is terminal.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentApproved || next == PaymentRejected
	case PaymentApproved:
		return next == PaymentPending || next == PaymentRejected
	default:
		return false
	}
}

func (s PaymentStatus) IsValid() bool {
	return s == PaymentPending || s == PaymentApproved || s == PaymentRejected
}

type Payment struct {
	ID                    uint              `json:"id"`
	ParticipationID       uint              `json:"participation_id"`
	PaymentMethodID       uint              `json:"payment_method_id"`
	TransactionDetails    map[string]string `json:"transaction_details"`
	PaymentDate           time.Time         `json:"payment_date"`
	AmountToPay           decimal.Decimal   `json:"amount_to_pay"`
	ExchangeRateApplied   *decimal.Decimal  `json:"exchange_rate_applied,omitempty"`
	PaymentHash           string            `json:"-"`
	Status                PaymentStatus     `json:"status"`
	VerifiedBy            *uint             `json:"verified_by,omitempty"`
	VerifiedAt            *time.Time        `json:"verified_at,omitempty"`
	VerificationNotes     string            `json:"verification_notes,omitempty"`
	TicketPriceAtCreation decimal.Decimal   `json:"ticket_price_at_creation"`
	TicketCountAtCreation int               `json:"ticket_count_at_creation"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// GeneratePaymentHash fingerprints a reported payment so the same transfer
// cannot be reported twice.
func GeneratePaymentHash(methodID uint, reference string, paymentDate time.Time, amount decimal.Decimal) string {
	raw := fmt.Sprintf("%d:%s:%s:%s", methodID, reference, paymentDate.Format(time.DateOnly), amount.StringFixed(2))
	sum := sha256.Sum256([]byte(strings.ToLower(raw)))

	return hex.EncodeToString(sum[:])
}
