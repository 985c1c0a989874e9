package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrParticipationNotFound = errors.New("participation not found")

type Participation struct {
	ID uint `gorm:"primaryKey"`

	RaffleID                 uint   `gorm:"not null;index:idx_participation_lookup,priority:1"`
	FullName                 string `gorm:"size:200;not null"`
	Phone                    string `gorm:"size:20;not null"`
	Email                    string `gorm:"size:254;not null"`
	IdentificationNumber     string `gorm:"size:20;not null"`
	IdentificationNumberHash string `gorm:"size:64;not null;index:idx_participation_lookup,priority:2"`
	PhoneHash                string `gorm:"size:64;not null;index:idx_participation_lookup,priority:3"`
	EmailHash                string `gorm:"size:64;not null;index:idx_participation_lookup,priority:4"`
	TicketCount              int    `gorm:"not null"`

	Tickets []Ticket `gorm:"constraint:OnDelete:CASCADE;"`
	Payment *Payment `gorm:"constraint:OnDelete:CASCADE;"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type ParticipationDAO struct {
	db *gorm.DB
}

func NewParticipationDAO(db *gorm.DB) *ParticipationDAO {
	return &ParticipationDAO{
		db: db,
	}
}

func (d *ParticipationDAO) Insert(ctx context.Context, participation Participation) (Participation, error) {
	result := conn(ctx, d.db).Create(&participation)
	if result.Error != nil {
		return Participation{}, result.Error
	}

	return participation, nil
}

func (d *ParticipationDAO) FindByID(ctx context.Context, id uint) (Participation, error) {
	var participation Participation

	result := conn(ctx, d.db).
		Preload("Tickets", func(db *gorm.DB) *gorm.DB { return db.Order("ticket_number") }).
		Preload("Payment").
		First(&participation, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Participation{}, ErrParticipationNotFound
		}

		return Participation{}, result.Error
	}

	return participation, nil
}

func (d *ParticipationDAO) LockByID(ctx context.Context, id uint) (Participation, error) {
	var locked Participation

	result := forUpdate(conn(ctx, d.db)).Select("id").First(&locked, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Participation{}, ErrParticipationNotFound
		}

		return Participation{}, result.Error
	}

	return d.FindByID(ctx, id)
}

func (d *ParticipationDAO) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, d.db).Delete(&Participation{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrParticipationNotFound
	}

	return nil
}

func (d *ParticipationDAO) FindByContactHashes(ctx context.Context, raffleID uint, idHash, phoneHash, emailHash string) ([]Participation, error) {
	var participations []Participation

	result := conn(ctx, d.db).
		Preload("Tickets", func(db *gorm.DB) *gorm.DB { return db.Order("ticket_number") }).
		Preload("Payment").
		Where(&Participation{
			RaffleID:                 raffleID,
			IdentificationNumberHash: idHash,
			PhoneHash:                phoneHash,
			EmailHash:                emailHash,
		}).
		Order("created_at DESC").
		Find(&participations)
	if result.Error != nil {
		return nil, result.Error
	}

	return participations, nil
}
