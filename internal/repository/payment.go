package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository/dao"
)

var (
	ErrPaymentNotFound       = dao.ErrPaymentNotFound
	ErrDuplicatePayment      = dao.ErrDuplicatePayment
	ErrPaymentAlreadyExists  = dao.ErrPaymentAlreadyExists
	ErrPaymentMethodNotFound = dao.ErrPaymentMethodNotFound
)

type PaymentDAO interface {
	Insert(ctx context.Context, payment dao.Payment) (dao.Payment, error)
	FindByID(ctx context.Context, id uint) (dao.Payment, error)
	LockByID(ctx context.Context, id uint) (dao.Payment, error)
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	ExistsForParticipation(ctx context.Context, participationID uint) (bool, error)
	Update(ctx context.Context, payment dao.Payment) (dao.Payment, error)
	Delete(ctx context.Context, id uint) error
}

type PaymentRepository struct {
	dao PaymentDAO
}

func NewPaymentRepository(dao PaymentDAO) *PaymentRepository {
	return &PaymentRepository{
		dao: dao,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	created, err := r.dao.Insert(ctx, paymentToDAO(payment))
	if err != nil {
		return domain.Payment{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return paymentToDomain(created), nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uint) (domain.Payment, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return paymentToDomain(found), nil
}

func (r *PaymentRepository) LockByID(ctx context.Context, id uint) (domain.Payment, error) {
	found, err := r.dao.LockByID(ctx, id)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("r.dao.LockByID -> %w", err)
	}

	return paymentToDomain(found), nil
}

func (r *PaymentRepository) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	exists, err := r.dao.ExistsByHash(ctx, hash)
	if err != nil {
		return false, fmt.Errorf("r.dao.ExistsByHash -> %w", err)
	}

	return exists, nil
}

func (r *PaymentRepository) ExistsForParticipation(ctx context.Context, participationID uint) (bool, error) {
	exists, err := r.dao.ExistsForParticipation(ctx, participationID)
	if err != nil {
		return false, fmt.Errorf("r.dao.ExistsForParticipation -> %w", err)
	}

	return exists, nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	updated, err := r.dao.Update(ctx, paymentToDAO(payment))
	if err != nil {
		return domain.Payment{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return paymentToDomain(updated), nil
}

func (r *PaymentRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func paymentToDomain(p dao.Payment) domain.Payment {
	payment := domain.Payment{
		ID:                    p.ID,
		ParticipationID:       p.ParticipationID,
		PaymentMethodID:       p.PaymentMethodID,
		TransactionDetails:    p.TransactionDetails.Data(),
		PaymentDate:           p.PaymentDate,
		AmountToPay:           p.AmountToPay,
		PaymentHash:           p.PaymentHash,
		Status:                domain.PaymentStatus(p.Status),
		VerifiedBy:            p.VerifiedBy,
		VerifiedAt:            p.VerifiedAt,
		VerificationNotes:     p.VerificationNotes,
		TicketPriceAtCreation: p.TicketPriceAtCreation,
		TicketCountAtCreation: p.TicketCountAtCreation,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
	if p.ExchangeRateApplied.Valid {
		rate := p.ExchangeRateApplied.Decimal
		payment.ExchangeRateApplied = &rate
	}

	return payment
}

func paymentToDAO(p domain.Payment) dao.Payment {
	payment := dao.Payment{
		ID:                    p.ID,
		ParticipationID:       p.ParticipationID,
		PaymentMethodID:       p.PaymentMethodID,
		TransactionDetails:    datatypes.NewJSONType(p.TransactionDetails),
		PaymentDate:           p.PaymentDate,
		AmountToPay:           p.AmountToPay,
		PaymentHash:           p.PaymentHash,
		Status:                string(p.Status),
		VerifiedBy:            p.VerifiedBy,
		VerifiedAt:            p.VerifiedAt,
		VerificationNotes:     p.VerificationNotes,
		TicketPriceAtCreation: p.TicketPriceAtCreation,
		TicketCountAtCreation: p.TicketCountAtCreation,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
	if p.ExchangeRateApplied != nil {
		payment.ExchangeRateApplied = decimal.NewNullDecimal(*p.ExchangeRateApplied)
	}

	return payment
}

type PaymentMethodDAO interface {
	Insert(ctx context.Context, method dao.PaymentMethod) (dao.PaymentMethod, error)
	FindByID(ctx context.Context, id uint) (dao.PaymentMethod, error)
}

type PaymentMethodRepository struct {
	dao PaymentMethodDAO
}

func NewPaymentMethodRepository(dao PaymentMethodDAO) *PaymentMethodRepository {
	return &PaymentMethodRepository{
		dao: dao,
	}
}

func (r *PaymentMethodRepository) Create(ctx context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error) {
	created, err := r.dao.Insert(ctx, paymentMethodToDAO(method))
	if err != nil {
		return domain.PaymentMethod{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return paymentMethodToDomain(created), nil
}

func (r *PaymentMethodRepository) FindByID(ctx context.Context, id uint) (domain.PaymentMethod, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.PaymentMethod{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return paymentMethodToDomain(found), nil
}

func paymentMethodToDomain(m dao.PaymentMethod) domain.PaymentMethod {
	return domain.PaymentMethod{
		ID:       m.ID,
		Kind:     domain.PaymentMethodKind(m.Kind),
		Name:     m.Name,
		Details:  m.Details.Data(),
		IsActive: m.IsActive,
	}
}

func paymentMethodToDAO(m domain.PaymentMethod) dao.PaymentMethod {
	return dao.PaymentMethod{
		ID:       m.ID,
		Kind:     string(m.Kind),
		Name:     m.Name,
		Details:  datatypes.NewJSONType(m.Details),
		IsActive: m.IsActive,
	}
}
