package repository

import (
	"context"
	"fmt"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository/dao"
)

var ErrParticipationNotFound = dao.ErrParticipationNotFound

type ParticipationDAO interface {
	Insert(ctx context.Context, participation dao.Participation) (dao.Participation, error)
	FindByID(ctx context.Context, id uint) (dao.Participation, error)
	LockByID(ctx context.Context, id uint) (dao.Participation, error)
	Delete(ctx context.Context, id uint) error
	FindByContactHashes(ctx context.Context, raffleID uint, idHash, phoneHash, emailHash string) ([]dao.Participation, error)
}

type ParticipationRepository struct {
	dao ParticipationDAO
}

func NewParticipationRepository(dao ParticipationDAO) *ParticipationRepository {
	return &ParticipationRepository{
		dao: dao,
	}
}

func (r *ParticipationRepository) Create(ctx context.Context, participation domain.Participation) (domain.Participation, error) {
	created, err := r.dao.Insert(ctx, dao.Participation{
		RaffleID:                 participation.RaffleID,
		FullName:                 participation.FullName,
		Phone:                    participation.Phone,
		Email:                    participation.Email,
		IdentificationNumber:     participation.IdentificationNumber,
		IdentificationNumberHash: participation.IdentificationNumberHash,
		PhoneHash:                participation.PhoneHash,
		EmailHash:                participation.EmailHash,
		TicketCount:              participation.TicketCount,
	})
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return participationToDomain(created), nil
}

func (r *ParticipationRepository) FindByID(ctx context.Context, id uint) (domain.Participation, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return participationToDomain(found), nil
}

func (r *ParticipationRepository) LockByID(ctx context.Context, id uint) (domain.Participation, error) {
	found, err := r.dao.LockByID(ctx, id)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.LockByID -> %w", err)
	}

	return participationToDomain(found), nil
}

func (r *ParticipationRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *ParticipationRepository) FindByContactHashes(ctx context.Context, raffleID uint, idHash, phoneHash, emailHash string) ([]domain.Participation, error) {
	found, err := r.dao.FindByContactHashes(ctx, raffleID, idHash, phoneHash, emailHash)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByContactHashes -> %w", err)
	}

	participations := make([]domain.Participation, 0, len(found))
	for _, f := range found {
		participations = append(participations, participationToDomain(f))
	}

	return participations, nil
}

func participationToDomain(p dao.Participation) domain.Participation {
	participation := domain.Participation{
		ID:                       p.ID,
		RaffleID:                 p.RaffleID,
		FullName:                 p.FullName,
		Phone:                    p.Phone,
		Email:                    p.Email,
		IdentificationNumber:     p.IdentificationNumber,
		PhoneHash:                p.PhoneHash,
		EmailHash:                p.EmailHash,
		IdentificationNumberHash: p.IdentificationNumberHash,
		TicketCount:              p.TicketCount,
		CreatedAt:                p.CreatedAt,
		UpdatedAt:                p.UpdatedAt,
	}
	for _, t := range p.Tickets {
		participation.Tickets = append(participation.Tickets, ticketToDomain(t))
	}
	if p.Payment != nil {
		payment := paymentToDomain(*p.Payment)
		participation.Payment = &payment
	}

	return participation
}
