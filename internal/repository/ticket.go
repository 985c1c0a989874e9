package repository

import (
	"context"
	"fmt"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository/dao"
)

var (
	ErrTicketNotFound    = dao.ErrTicketNotFound
	ErrTicketNumberTaken = dao.ErrTicketNumberTaken
)

type TicketDAO interface {
	AssignedNumbers(ctx context.Context, raffleID uint) ([]int, error)
	CountByParticipation(ctx context.Context, participationID uint) (int64, error)
	InsertBatch(ctx context.Context, tickets []dao.Ticket) ([]dao.Ticket, error)
	DeleteByParticipation(ctx context.Context, participationID uint) (int64, error)
	FindByNumber(ctx context.Context, raffleID uint, number int) (dao.Ticket, error)
	ListByParticipation(ctx context.Context, participationID uint) ([]dao.Ticket, error)
}

type TicketRepository struct {
	dao TicketDAO
}

func NewTicketRepository(dao TicketDAO) *TicketRepository {
	return &TicketRepository{
		dao: dao,
	}
}

func (r *TicketRepository) AssignedNumbers(ctx context.Context, raffleID uint) ([]int, error) {
	numbers, err := r.dao.AssignedNumbers(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.AssignedNumbers -> %w", err)
	}

	return numbers, nil
}

func (r *TicketRepository) CountByParticipation(ctx context.Context, participationID uint) (int64, error) {
	count, err := r.dao.CountByParticipation(ctx, participationID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.CountByParticipation -> %w", err)
	}

	return count, nil
}

func (r *TicketRepository) CreateBatch(ctx context.Context, tickets []domain.Ticket) ([]domain.Ticket, error) {
	rows := make([]dao.Ticket, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, dao.Ticket{
			RaffleID:        t.RaffleID,
			ParticipationID: t.ParticipationID,
			TicketNumber:    t.Number,
			AssignedAt:      t.AssignedAt,
		})
	}

	created, err := r.dao.InsertBatch(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("r.dao.InsertBatch -> %w", err)
	}

	return ticketsToDomain(created), nil
}

func (r *TicketRepository) DeleteByParticipation(ctx context.Context, participationID uint) (int64, error) {
	deleted, err := r.dao.DeleteByParticipation(ctx, participationID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.DeleteByParticipation -> %w", err)
	}

	return deleted, nil
}

func (r *TicketRepository) FindByNumber(ctx context.Context, raffleID uint, number int) (domain.Ticket, error) {
	found, err := r.dao.FindByNumber(ctx, raffleID, number)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.FindByNumber -> %w", err)
	}

	return ticketToDomain(found), nil
}

func (r *TicketRepository) ListByParticipation(ctx context.Context, participationID uint) ([]domain.Ticket, error) {
	found, err := r.dao.ListByParticipation(ctx, participationID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByParticipation -> %w", err)
	}

	return ticketsToDomain(found), nil
}

func ticketToDomain(t dao.Ticket) domain.Ticket {
	return domain.Ticket{
		ID:              t.ID,
		RaffleID:        t.RaffleID,
		ParticipationID: t.ParticipationID,
		Number:          t.TicketNumber,
		AssignedAt:      t.AssignedAt,
	}
}

func ticketsToDomain(rows []dao.Ticket) []domain.Ticket {
	tickets := make([]domain.Ticket, 0, len(rows))
	for _, t := range rows {
		tickets = append(tickets, ticketToDomain(t))
	}

	return tickets
}
