package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository/dao"
)

var ErrAuditVersionConflict = dao.ErrAuditVersionConflict

type AuditDAO interface {
	Append(ctx context.Context, entry dao.AuditEntry) (dao.AuditEntry, error)
	ListByEntity(ctx context.Context, entityType string, entityID uint) ([]dao.AuditEntry, error)
}

type AuditRepository struct {
	dao AuditDAO
	now func() time.Time
}

func NewAuditRepository(dao AuditDAO) *AuditRepository {
	return &AuditRepository{
		dao: dao,
		now: time.Now,
	}
}

// Record appends a snapshot of the entity to its history. Call it with the
// context of the transaction that mutated the entity.
func (r *AuditRepository) Record(ctx context.Context, entityType domain.EntityType, entityID uint, action domain.AuditAction, actorID *uint, snapshot any) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	_, err = r.dao.Append(ctx, dao.AuditEntry{
		EntityType: string(entityType),
		EntityID:   entityID,
		Action:     string(action),
		ActorID:    actorID,
		Snapshot:   datatypes.JSON(raw),
		CreatedAt:  r.now(),
	})
	if err != nil {
		return fmt.Errorf("r.dao.Append -> %w", err)
	}

	return nil
}

func (r *AuditRepository) History(ctx context.Context, entityType domain.EntityType, entityID uint) ([]domain.AuditEntry, error) {
	found, err := r.dao.ListByEntity(ctx, string(entityType), entityID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByEntity -> %w", err)
	}

	entries := make([]domain.AuditEntry, 0, len(found))
	for _, e := range found {
		entries = append(entries, domain.AuditEntry{
			ID:         e.ID,
			EntityType: domain.EntityType(e.EntityType),
			EntityID:   e.EntityID,
			Version:    e.Version,
			Action:     domain.AuditAction(e.Action),
			ActorID:    e.ActorID,
			Snapshot:   json.RawMessage(e.Snapshot),
			CreatedAt:  e.CreatedAt,
		})
	}

	return entries, nil
}
