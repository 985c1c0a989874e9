package dao

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrDuplicatePayment      = errors.New("a payment with the same reference, date and amount was already reported")
	ErrPaymentAlreadyExists  = errors.New("participation already has a payment")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
)

const (
	paymentHashConstraint          = "uni_payments_payment_hash"
	paymentParticipationConstraint = "uni_payments_participation_id"
)

type PaymentMethod struct {
	ID uint `gorm:"primaryKey"`

	Kind     string                                `gorm:"size:20;not null"`
	Name     string                                `gorm:"size:100;not null"`
	Details  datatypes.JSONType[map[string]string] `gorm:"not null"`
	IsActive bool                                  `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Payment struct {
	ID uint `gorm:"primaryKey"`

	ParticipationID       uint                                  `gorm:"unique;not null"`
	PaymentMethodID       uint                                  `gorm:"not null;index"`
	PaymentMethod         PaymentMethod                         `gorm:"constraint:OnDelete:RESTRICT;"`
	TransactionDetails    datatypes.JSONType[map[string]string] `gorm:"not null"`
	PaymentDate           time.Time                             `gorm:"type:date;not null"`
	AmountToPay           decimal.Decimal                       `gorm:"type:numeric(12,2);not null"`
	ExchangeRateApplied   decimal.NullDecimal                   `gorm:"type:numeric(10,4)"`
	PaymentHash           string                                `gorm:"size:64;unique;not null"`
	Status                string                                `gorm:"size:20;not null;index"`
	VerifiedBy            *uint
	VerifiedAt            *time.Time
	VerificationNotes     string          `gorm:"type:text"`
	TicketPriceAtCreation decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	TicketCountAtCreation int             `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type PaymentDAO struct {
	db *gorm.DB
}

func NewPaymentDAO(db *gorm.DB) *PaymentDAO {
	return &PaymentDAO{
		db: db,
	}
}

func (d *PaymentDAO) Insert(ctx context.Context, payment Payment) (Payment, error) {
	result := conn(ctx, d.db).Omit("PaymentMethod").Create(&payment)
	if result.Error != nil {
		if isUniqueViolation(result.Error, paymentHashConstraint) {
			return Payment{}, ErrDuplicatePayment
		}
		if isUniqueViolation(result.Error, paymentParticipationConstraint) {
			return Payment{}, ErrPaymentAlreadyExists
		}

		return Payment{}, result.Error
	}

	return payment, nil
}

func (d *PaymentDAO) FindByID(ctx context.Context, id uint) (Payment, error) {
	var payment Payment

	result := conn(ctx, d.db).First(&payment, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Payment{}, ErrPaymentNotFound
		}

		return Payment{}, result.Error
	}

	return payment, nil
}

func (d *PaymentDAO) LockByID(ctx context.Context, id uint) (Payment, error) {
	var payment Payment

	result := forUpdate(conn(ctx, d.db)).First(&payment, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Payment{}, ErrPaymentNotFound
		}

		return Payment{}, result.Error
	}

	return payment, nil
}

func (d *PaymentDAO) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	var count int64

	result := conn(ctx, d.db).Model(&Payment{}).Where("payment_hash = ?", hash).Limit(1).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

func (d *PaymentDAO) ExistsForParticipation(ctx context.Context, participationID uint) (bool, error) {
	var count int64

	result := conn(ctx, d.db).Model(&Payment{}).Where("participation_id = ?", participationID).Limit(1).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

func (d *PaymentDAO) Update(ctx context.Context, payment Payment) (Payment, error) {
	result := conn(ctx, d.db).Omit("PaymentMethod").Save(&payment)
	if result.Error != nil {
		return Payment{}, result.Error
	}

	return payment, nil
}

func (d *PaymentDAO) Delete(ctx context.Context, id uint) error {
	result := conn(ctx, d.db).Delete(&Payment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotFound
	}

	return nil
}

type PaymentMethodDAO struct {
	db *gorm.DB
}

func NewPaymentMethodDAO(db *gorm.DB) *PaymentMethodDAO {
	return &PaymentMethodDAO{
		db: db,
	}
}

func (d *PaymentMethodDAO) Insert(ctx context.Context, method PaymentMethod) (PaymentMethod, error) {
	result := conn(ctx, d.db).Create(&method)
	if result.Error != nil {
		return PaymentMethod{}, result.Error
	}

	return method, nil
}

func (d *PaymentMethodDAO) FindByID(ctx context.Context, id uint) (PaymentMethod, error) {
	var method PaymentMethod

	result := conn(ctx, d.db).First(&method, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return PaymentMethod{}, ErrPaymentMethodNotFound
		}

		return PaymentMethod{}, result.Error
	}

	return method, nil
}
