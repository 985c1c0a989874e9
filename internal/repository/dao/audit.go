package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrAuditVersionConflict = errors.New("concurrent audit write for the same entity")

const auditVersionConstraint = "idx_audit_entity_version"

type AuditEntry struct {
	ID uint `gorm:"primaryKey"`

	EntityType string `gorm:"size:40;not null;uniqueIndex:idx_audit_entity_version,priority:1"`
	EntityID   uint   `gorm:"not null;uniqueIndex:idx_audit_entity_version,priority:2"`
	Version    int    `gorm:"not null;uniqueIndex:idx_audit_entity_version,priority:3"`
	Action     string `gorm:"size:40;not null"`
	ActorID    *uint
	Snapshot   datatypes.JSON `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
}

type AuditDAO struct {
	db *gorm.DB
}

func NewAuditDAO(db *gorm.DB) *AuditDAO {
	return &AuditDAO{
		db: db,
	}
}

// Append stores entry as the next version of its entity. Two writers racing
// on the same entity hit the unique key and the loser's transaction aborts.
func (d *AuditDAO) Append(ctx context.Context, entry AuditEntry) (AuditEntry, error) {
	db := conn(ctx, d.db)

	var current int
	result := db.Model(&AuditEntry{}).
		Where("entity_type = ? AND entity_id = ?", entry.EntityType, entry.EntityID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&current)
	if result.Error != nil {
		return AuditEntry{}, result.Error
	}

	entry.Version = current + 1
	if result = db.Create(&entry); result.Error != nil {
		if isUniqueViolation(result.Error, auditVersionConstraint) {
			return AuditEntry{}, ErrAuditVersionConflict
		}

		return AuditEntry{}, result.Error
	}

	return entry, nil
}

func (d *AuditDAO) ListByEntity(ctx context.Context, entityType string, entityID uint) ([]AuditEntry, error) {
	var entries []AuditEntry

	result := conn(ctx, d.db).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("version").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}
