package repository

import (
	"context"
	"fmt"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository/dao"
)

var (
	ErrRaffleNotFound = dao.ErrRaffleNotFound
	ErrSlugTaken      = dao.ErrSlugTaken
)

type RaffleDAO interface {
	Insert(ctx context.Context, raffle dao.Raffle) (dao.Raffle, error)
	FindByID(ctx context.Context, id uint) (dao.Raffle, error)
	LockByID(ctx context.Context, id uint) (dao.Raffle, error)
	FindBySlug(ctx context.Context, slug string) (dao.Raffle, error)
	ListActive(ctx context.Context) ([]dao.Raffle, error)
	ReservedTicketCount(ctx context.Context, raffleID uint) (int64, error)
}

type RaffleRepository struct {
	dao RaffleDAO
}

func NewRaffleRepository(dao RaffleDAO) *RaffleRepository {
	return &RaffleRepository{
		dao: dao,
	}
}

func (r *RaffleRepository) Create(ctx context.Context, raffle domain.Raffle) (domain.Raffle, error) {
	created, err := r.dao.Insert(ctx, raffleToDAO(raffle))
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return raffleToDomain(created), nil
}

func (r *RaffleRepository) FindByID(ctx context.Context, id uint) (domain.Raffle, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return raffleToDomain(found), nil
}

func (r *RaffleRepository) LockByID(ctx context.Context, id uint) (domain.Raffle, error) {
	found, err := r.dao.LockByID(ctx, id)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.dao.LockByID -> %w", err)
	}

	return raffleToDomain(found), nil
}

func (r *RaffleRepository) FindBySlug(ctx context.Context, slug string) (domain.Raffle, error) {
	found, err := r.dao.FindBySlug(ctx, slug)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("r.dao.FindBySlug -> %w", err)
	}

	return raffleToDomain(found), nil
}

func (r *RaffleRepository) ListActive(ctx context.Context) ([]domain.Raffle, error) {
	found, err := r.dao.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListActive -> %w", err)
	}

	raffles := make([]domain.Raffle, 0, len(found))
	for _, f := range found {
		raffles = append(raffles, raffleToDomain(f))
	}

	return raffles, nil
}

func (r *RaffleRepository) ReservedTicketCount(ctx context.Context, raffleID uint) (int64, error) {
	reserved, err := r.dao.ReservedTicketCount(ctx, raffleID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.ReservedTicketCount -> %w", err)
	}

	return reserved, nil
}

func raffleToDomain(r dao.Raffle) domain.Raffle {
	raffle := domain.Raffle{
		ID:                 r.ID,
		Title:              r.Title,
		Slug:               r.Slug,
		Description:        r.Description,
		PromotionalMessage: r.PromotionalMessage,
		Currency:           domain.Currency(r.Currency),
		TicketPrice:        r.TicketPrice,
		TotalTickets:       r.TotalTickets,
		MinTicketPurchase:  r.MinTicketPurchase,
		Status:             domain.RaffleStatus(r.Status),
		IsActive:           r.IsActive,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
	}
	for _, m := range r.PaymentMethods {
		raffle.PaymentMethods = append(raffle.PaymentMethods, paymentMethodToDomain(m))
	}
	for _, p := range r.Prizes {
		raffle.Prizes = append(raffle.Prizes, prizeToDomain(p))
	}

	return raffle
}

func raffleToDAO(r domain.Raffle) dao.Raffle {
	raffle := dao.Raffle{
		ID:                 r.ID,
		Title:              r.Title,
		Slug:               r.Slug,
		Description:        r.Description,
		PromotionalMessage: r.PromotionalMessage,
		Currency:           string(r.Currency),
		TicketPrice:        r.TicketPrice,
		TotalTickets:       r.TotalTickets,
		MinTicketPurchase:  r.MinTicketPurchase,
		Status:             string(r.Status),
		IsActive:           r.IsActive,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
	}
	for _, m := range r.PaymentMethods {
		raffle.PaymentMethods = append(raffle.PaymentMethods, paymentMethodToDAO(m))
	}

	return raffle
}
