package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository"
)

var (
	ErrInvalidPaymentMethodDetails = errors.New("invalid payment method details")
	ErrUnknownBank                 = errors.New("bank code is not in the catalog")
	ErrSlugTaken                   = repository.ErrSlugTaken
	ErrBankNotFound                = repository.ErrBankNotFound
)

type CatalogRaffleRepository interface {
	Create(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error)
}

type CatalogPaymentMethodRepository interface {
	Create(ctx context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error)
	FindByID(ctx context.Context, id uint) (domain.PaymentMethod, error)
}

type BankRepository interface {
	List(ctx context.Context) ([]domain.Bank, error)
	FindByCode(ctx context.Context, code string) (domain.Bank, error)
}

// CatalogService manages the records staff set up before a raffle opens:
// raffles, the accounts that receive payments and the bank catalog.
type CatalogService struct {
	raffles CatalogRaffleRepository
	methods CatalogPaymentMethodRepository
	banks   BankRepository
	now     func() time.Time
}

func NewCatalogService(raffles CatalogRaffleRepository, methods CatalogPaymentMethodRepository, banks BankRepository) *CatalogService {
	return &CatalogService{
		raffles: raffles,
		methods: methods,
		banks:   banks,
		now:     time.Now,
	}
}

// CreateRaffle stores a new raffle. A missing slug is generated from the
// title, and every listed payment method must exist.
func (s *CatalogService) CreateRaffle(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error) {
	if raffle.Slug == "" {
		raffle.Slug = domain.GenerateSlug(raffle.Title, s.now())
	}
	if raffle.Status == "" {
		raffle.Status = domain.RaffleInProgress
	}
	if raffle.MinTicketPurchase < 1 {
		raffle.MinTicketPurchase = 1
	}
	if raffle.StartDate.IsZero() {
		raffle.StartDate = s.now()
	}

	methods := make([]domain.PaymentMethod, 0, len(raffle.PaymentMethods))
	for _, m := range raffle.PaymentMethods {
		found, err := s.methods.FindByID(ctx, m.ID)
		if err != nil {
			return domain.Raffle{}, fmt.Errorf("s.methods.FindByID -> %w", err)
		}
		methods = append(methods, found)
	}
	raffle.PaymentMethods = methods

	created, err := s.raffles.Create(ctx, raffle)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("s.raffles.Create -> %w", err)
	}

	return created, nil
}

// CreatePaymentMethod stores a receiving account. VEF accounts must name a
// bank from the catalog.
func (s *CatalogService) CreatePaymentMethod(ctx context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error) {
	if err := method.Validate(); err != nil {
		return domain.PaymentMethod{}, fmt.Errorf("%w: %v", ErrInvalidPaymentMethodDetails, err)
	}

	if code, ok := method.BankCode(); ok {
		if _, err := s.banks.FindByCode(ctx, code); err != nil {
			if errors.Is(err, ErrBankNotFound) {
				return domain.PaymentMethod{}, fmt.Errorf("%w: %s", ErrUnknownBank, code)
			}

			return domain.PaymentMethod{}, fmt.Errorf("s.banks.FindByCode -> %w", err)
		}
	}

	created, err := s.methods.Create(ctx, method)
	if err != nil {
		return domain.PaymentMethod{}, fmt.Errorf("s.methods.Create -> %w", err)
	}

	return created, nil
}

func (s *CatalogService) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	banks, err := s.banks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.banks.List -> %w", err)
	}

	return banks, nil
}
