package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrPrizeNotFound = errors.New("prize not found")
	ErrDrawNotFound  = errors.New("draw not found")
)

type Prize struct {
	ID uint `gorm:"primaryKey"`

	RaffleID              uint   `gorm:"not null;index"`
	DisplayOrder          int    `gorm:"not null;default:0"`
	LevelTitle            string `gorm:"size:100;not null"`
	Name                  string `gorm:"size:200;not null"`
	Description           string `gorm:"type:text"`
	WinnerParticipationID *uint
	WinnerTicketNumber    *int
	DeliveredAt           *time.Time

	Draws []Draw `gorm:"foreignKey:PrizeID;constraint:OnDelete:CASCADE;"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Draw struct {
	ID uint `gorm:"primaryKey"`

	PrizeID       uint      `gorm:"not null;index"`
	LotteryName   string    `gorm:"size:100;not null"`
	DrawTime      time.Time `gorm:"not null"`
	WinningNumber *int
	Status        string `gorm:"size:20;not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type PrizeDAO struct {
	db *gorm.DB
}

func NewPrizeDAO(db *gorm.DB) *PrizeDAO {
	return &PrizeDAO{
		db: db,
	}
}

func (d *PrizeDAO) Insert(ctx context.Context, prize Prize) (Prize, error) {
	result := conn(ctx, d.db).Create(&prize)
	if result.Error != nil {
		return Prize{}, result.Error
	}

	return prize, nil
}

func (d *PrizeDAO) FindByID(ctx context.Context, id uint) (Prize, error) {
	var prize Prize

	result := conn(ctx, d.db).First(&prize, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Prize{}, ErrPrizeNotFound
		}

		return Prize{}, result.Error
	}

	return prize, nil
}

func (d *PrizeDAO) LockByID(ctx context.Context, id uint) (Prize, error) {
	var prize Prize

	result := forUpdate(conn(ctx, d.db)).First(&prize, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Prize{}, ErrPrizeNotFound
		}

		return Prize{}, result.Error
	}

	return prize, nil
}

// Update writes every column, including the nil winner fields after a reset.
func (d *PrizeDAO) Update(ctx context.Context, prize Prize) (Prize, error) {
	result := conn(ctx, d.db).Omit("Draws").Save(&prize)
	if result.Error != nil {
		return Prize{}, result.Error
	}

	return prize, nil
}

type DrawDAO struct {
	db *gorm.DB
}

func NewDrawDAO(db *gorm.DB) *DrawDAO {
	return &DrawDAO{
		db: db,
	}
}

func (d *DrawDAO) Insert(ctx context.Context, draw Draw) (Draw, error) {
	result := conn(ctx, d.db).Create(&draw)
	if result.Error != nil {
		return Draw{}, result.Error
	}

	return draw, nil
}

func (d *DrawDAO) FindByID(ctx context.Context, id uint) (Draw, error) {
	var draw Draw

	result := conn(ctx, d.db).First(&draw, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Draw{}, ErrDrawNotFound
		}

		return Draw{}, result.Error
	}

	return draw, nil
}

func (d *DrawDAO) LockByID(ctx context.Context, id uint) (Draw, error) {
	var draw Draw

	result := forUpdate(conn(ctx, d.db)).First(&draw, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Draw{}, ErrDrawNotFound
		}

		return Draw{}, result.Error
	}

	return draw, nil
}

func (d *DrawDAO) Update(ctx context.Context, draw Draw) (Draw, error) {
	result := conn(ctx, d.db).Save(&draw)
	if result.Error != nil {
		return Draw{}, result.Error
	}

	return draw, nil
}

func (d *DrawDAO) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, d.db).Delete(&Draw{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDrawNotFound
	}

	return nil
}

func (d *DrawDAO) LatestByPrizeAndStatus(ctx context.Context, prizeID uint, status string) (Draw, error) {
	var draw Draw

	result := conn(ctx, d.db).
		Where("prize_id = ? AND status = ?", prizeID, status).
		Order("draw_time DESC, id DESC").
		First(&draw)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Draw{}, ErrDrawNotFound
		}

		return Draw{}, result.Error
	}

	return draw, nil
}
