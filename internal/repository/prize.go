package repository

import (
	"context"
	"fmt"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository/dao"
)

var (
	ErrPrizeNotFound = dao.ErrPrizeNotFound
	ErrDrawNotFound  = dao.ErrDrawNotFound
)

type PrizeDAO interface {
	Insert(ctx context.Context, prize dao.Prize) (dao.Prize, error)
	FindByID(ctx context.Context, id uint) (dao.Prize, error)
	LockByID(ctx context.Context, id uint) (dao.Prize, error)
	Update(ctx context.Context, prize dao.Prize) (dao.Prize, error)
}

type PrizeRepository struct {
	dao PrizeDAO
}

func NewPrizeRepository(dao PrizeDAO) *PrizeRepository {
	return &PrizeRepository{
		dao: dao,
	}
}

func (r *PrizeRepository) Create(ctx context.Context, prize domain.Prize) (domain.Prize, error) {
	created, err := r.dao.Insert(ctx, prizeToDAO(prize))
	if err != nil {
		return domain.Prize{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return prizeToDomain(created), nil
}

func (r *PrizeRepository) FindByID(ctx context.Context, id uint) (domain.Prize, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Prize{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return prizeToDomain(found), nil
}

func (r *PrizeRepository) LockByID(ctx context.Context, id uint) (domain.Prize, error) {
	found, err := r.dao.LockByID(ctx, id)
	if err != nil {
		return domain.Prize{}, fmt.Errorf("r.dao.LockByID -> %w", err)
	}

	return prizeToDomain(found), nil
}

func (r *PrizeRepository) Update(ctx context.Context, prize domain.Prize) (domain.Prize, error) {
	updated, err := r.dao.Update(ctx, prizeToDAO(prize))
	if err != nil {
		return domain.Prize{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return prizeToDomain(updated), nil
}

func prizeToDomain(p dao.Prize) domain.Prize {
	prize := domain.Prize{
		ID:                    p.ID,
		RaffleID:              p.RaffleID,
		DisplayOrder:          p.DisplayOrder,
		LevelTitle:            p.LevelTitle,
		Name:                  p.Name,
		Description:           p.Description,
		WinnerParticipationID: p.WinnerParticipationID,
		WinnerTicketNumber:    p.WinnerTicketNumber,
		DeliveredAt:           p.DeliveredAt,
	}
	for _, d := range p.Draws {
		prize.Draws = append(prize.Draws, drawToDomain(d))
	}

	return prize
}

func prizeToDAO(p domain.Prize) dao.Prize {
	return dao.Prize{
		ID:                    p.ID,
		RaffleID:              p.RaffleID,
		DisplayOrder:          p.DisplayOrder,
		LevelTitle:            p.LevelTitle,
		Name:                  p.Name,
		Description:           p.Description,
		WinnerParticipationID: p.WinnerParticipationID,
		WinnerTicketNumber:    p.WinnerTicketNumber,
		DeliveredAt:           p.DeliveredAt,
	}
}

type DrawDAO interface {
	Insert(ctx context.Context, draw dao.Draw) (dao.Draw, error)
	FindByID(ctx context.Context, id uint) (dao.Draw, error)
	LockByID(ctx context.Context, id uint) (dao.Draw, error)
	Update(ctx context.Context, draw dao.Draw) (dao.Draw, error)
	Delete(ctx context.Context, id uint) error
	LatestByPrizeAndStatus(ctx context.Context, prizeID uint, status string) (dao.Draw, error)
}

type DrawRepository struct {
	dao DrawDAO
}

func NewDrawRepository(dao DrawDAO) *DrawRepository {
	return &DrawRepository{
		dao: dao,
	}
}

func (r *DrawRepository) Create(ctx context.Context, draw domain.Draw) (domain.Draw, error) {
	created, err := r.dao.Insert(ctx, drawToDAO(draw))
	if err != nil {
		return domain.Draw{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return drawToDomain(created), nil
}

func (r *DrawRepository) FindByID(ctx context.Context, id uint) (domain.Draw, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Draw{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return drawToDomain(found), nil
}

func (r *DrawRepository) LockByID(ctx context.Context, id uint) (domain.Draw, error) {
	found, err := r.dao.LockByID(ctx, id)
	if err != nil {
		return domain.Draw{}, fmt.Errorf("r.dao.LockByID -> %w", err)
	}

	return drawToDomain(found), nil
}

func (r *DrawRepository) Update(ctx context.Context, draw domain.Draw) (domain.Draw, error) {
	updated, err := r.dao.Update(ctx, drawToDAO(draw))
	if err != nil {
		return domain.Draw{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return drawToDomain(updated), nil
}

func (r *DrawRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *DrawRepository) LatestByPrizeAndStatus(ctx context.Context, prizeID uint, status domain.DrawStatus) (domain.Draw, error) {
	found, err := r.dao.LatestByPrizeAndStatus(ctx, prizeID, string(status))
	if err != nil {
		return domain.Draw{}, fmt.Errorf("r.dao.LatestByPrizeAndStatus -> %w", err)
	}

	return drawToDomain(found), nil
}

func drawToDomain(d dao.Draw) domain.Draw {
	return domain.Draw{
		ID:            d.ID,
		PrizeID:       d.PrizeID,
		LotteryName:   d.LotteryName,
		DrawTime:      d.DrawTime,
		WinningNumber: d.WinningNumber,
		Status:        domain.DrawStatus(d.Status),
	}
}

func drawToDAO(d domain.Draw) dao.Draw {
	return dao.Draw{
		ID:            d.ID,
		PrizeID:       d.PrizeID,
		LotteryName:   d.LotteryName,
		DrawTime:      d.DrawTime,
		WinningNumber: d.WinningNumber,
		Status:        string(d.Status),
	}
}
