package dao

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrRaffleNotFound = errors.New("raffle not found")
	ErrSlugTaken      = errors.New("a raffle with this slug already exists")
)

const raffleSlugConstraint = "uni_raffles_slug"

type Raffle struct {
	ID uint `gorm:"primaryKey"`

	Title              string          `gorm:"size:200;not null"`
	Slug               string          `gorm:"size:255;unique;not null"`
	Description        string          `gorm:"type:text"`
	PromotionalMessage string          `gorm:"type:text"`
	Currency           string          `gorm:"size:3;not null"`
	TicketPrice        decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	TotalTickets       int             `gorm:"not null"`
	MinTicketPurchase  int             `gorm:"not null;default:1"`
	Status             string          `gorm:"size:20;not null;index"`
	IsActive           bool            `gorm:"not null"`
	StartDate          time.Time       `gorm:"not null"`
	EndDate            *time.Time

	PaymentMethods []PaymentMethod `gorm:"many2many:raffle_payment_methods;"`
	Prizes         []Prize         `gorm:"foreignKey:RaffleID"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type RaffleDAO struct {
	db *gorm.DB
}

func NewRaffleDAO(db *gorm.DB) *RaffleDAO {
	return &RaffleDAO{
		db: db,
	}
}

func (d *RaffleDAO) Insert(ctx context.Context, raffle Raffle) (Raffle, error) {
	result := conn(ctx, d.db).Create(&raffle)
	if result.Error != nil {
		if isUniqueViolation(result.Error, raffleSlugConstraint) {
			return Raffle{}, ErrSlugTaken
		}

		return Raffle{}, result.Error
	}

	return raffle, nil
}

func (d *RaffleDAO) FindByID(ctx context.Context, id uint) (Raffle, error) {
	var raffle Raffle

	result := conn(ctx, d.db).
		Preload("PaymentMethods").
		Preload("Prizes", func(db *gorm.DB) *gorm.DB { return db.Order("display_order, id") }).
		First(&raffle, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Raffle{}, ErrRaffleNotFound
		}

		return Raffle{}, result.Error
	}

	return raffle, nil
}

// LockByID takes a row lock on the raffle and returns it with its
// associations. Must run inside a transaction.
func (d *RaffleDAO) LockByID(ctx context.Context, id uint) (Raffle, error) {
	var locked Raffle

	result := forUpdate(conn(ctx, d.db)).Select("id").First(&locked, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Raffle{}, ErrRaffleNotFound
		}

		return Raffle{}, result.Error
	}

	return d.FindByID(ctx, id)
}

// FindBySlug only returns raffles that are publicly visible.
func (d *RaffleDAO) FindBySlug(ctx context.Context, slug string) (Raffle, error) {
	var raffle Raffle

	result := conn(ctx, d.db).
		Preload("PaymentMethods", "is_active = ?", true).
		Preload("Prizes", func(db *gorm.DB) *gorm.DB { return db.Order("display_order, id") }).
		Preload("Prizes.Draws", func(db *gorm.DB) *gorm.DB { return db.Order("draw_time") }).
		Where("slug = ? AND is_active = ? AND status <> ?", slug, true, "CANCELLED").
		First(&raffle)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Raffle{}, ErrRaffleNotFound
		}

		return Raffle{}, result.Error
	}

	return raffle, nil
}

func (d *RaffleDAO) ListActive(ctx context.Context) ([]Raffle, error) {
	var raffles []Raffle

	result := conn(ctx, d.db).
		Where("is_active = ? AND status <> ?", true, "CANCELLED").
		Order("start_date DESC").
		Find(&raffles)
	if result.Error != nil {
		return nil, result.Error
	}

	return raffles, nil
}

// ReservedTicketCount sums the tickets of participations that still hold a
// reservation: no payment yet, or a payment that was not rejected.
func (d *RaffleDAO) ReservedTicketCount(ctx context.Context, raffleID uint) (int64, error) {
	var reserved int64

	result := conn(ctx, d.db).
		Table("participations AS p").
		Joins("LEFT JOIN payments AS pay ON pay.participation_id = p.id").
		Where("p.raffle_id = ? AND (pay.id IS NULL OR pay.status <> ?)", raffleID, "REJECTED").
		Select("COALESCE(SUM(p.ticket_count), 0)").
		Scan(&reserved)
	if result.Error != nil {
		return 0, result.Error
	}

	return reserved, nil
}
