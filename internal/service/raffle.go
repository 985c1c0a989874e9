package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
)

type RaffleCache interface {
	Get(ctx context.Context, slug string) (domain.Raffle, bool, error)
	Set(ctx context.Context, raffle domain.Raffle) error
	Invalidate(ctx context.Context, slug string) error
}

type RaffleService struct {
	raffles RaffleRepository
	cache   RaffleCache
}

func NewRaffleService(raffles RaffleRepository, cache RaffleCache) *RaffleService {
	return &RaffleService{
		raffles: raffles,
		cache:   cache,
	}
}

func (s *RaffleService) ListActive(ctx context.Context) ([]domain.Raffle, error) {
	raffles, err := s.raffles.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.raffles.ListActive -> %w", err)
	}

	return raffles, nil
}

func (s *RaffleService) Get(ctx context.Context, id uint) (domain.Raffle, error) {
	raffle, err := s.raffles.FindByID(ctx, id)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("s.raffles.FindByID -> %w", err)
	}

	return raffle, nil
}

// Detail serves the public raffle page. Cache errors only cost a query.
func (s *RaffleService) Detail(ctx context.Context, slug string) (domain.Raffle, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, slug)
		if err != nil {
			zap.L().Warn("raffle cache read failed", zap.String("slug", slug), zap.Error(err))
		}
		if ok {
			return cached, nil
		}
	}

	raffle, err := s.raffles.FindBySlug(ctx, slug)
	if err != nil {
		return domain.Raffle{}, fmt.Errorf("s.raffles.FindBySlug -> %w", err)
	}

	if s.cache != nil {
		if err = s.cache.Set(ctx, raffle); err != nil {
			zap.L().Warn("raffle cache write failed", zap.String("slug", slug), zap.Error(err))
		}
	}

	return raffle, nil
}

func (s *RaffleService) Stats(ctx context.Context, slug string) (domain.RaffleStats, error) {
	raffle, err := s.raffles.FindBySlug(ctx, slug)
	if err != nil {
		return domain.RaffleStats{}, fmt.Errorf("s.raffles.FindBySlug -> %w", err)
	}

	return s.StatsFor(ctx, raffle)
}

func (s *RaffleService) StatsFor(ctx context.Context, raffle domain.Raffle) (domain.RaffleStats, error) {
	reserved, err := s.raffles.ReservedTicketCount(ctx, raffle.ID)
	if err != nil {
		return domain.RaffleStats{}, fmt.Errorf("s.raffles.ReservedTicketCount -> %w", err)
	}

	return domain.NewRaffleStats(raffle, reserved), nil
}

// Publish drops the cached detail of a raffle whose prizes changed, so the
// public page shows the new winner or draw.
func (s *RaffleService) Publish(event domain.RaffleEvent) {
	if s.cache == nil || event.Type == domain.EventStatsChanged {
		return
	}

	ctx := context.Background()
	raffle, err := s.raffles.FindByID(ctx, event.RaffleID)
	if err != nil {
		zap.L().Warn("cannot resolve raffle for cache invalidation", zap.Uint("raffle_id", event.RaffleID), zap.Error(err))
		return
	}

	if err = s.cache.Invalidate(ctx, raffle.Slug); err != nil {
		zap.L().Warn("raffle cache invalidation failed", zap.String("slug", raffle.Slug), zap.Error(err))
	}
}
