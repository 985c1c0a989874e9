package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository/dao"
)

var ErrExchangeRateNotFound = dao.ErrExchangeRateNotFound

type ExchangeRateDAO interface {
	LatestOnOrBefore(ctx context.Context, date time.Time) (dao.ExchangeRate, error)
	ExistsAfter(ctx context.Context, date time.Time) (bool, error)
	FirstOrCreate(ctx context.Context, rate dao.ExchangeRate) (dao.ExchangeRate, bool, error)
	Upsert(ctx context.Context, rate dao.ExchangeRate) (dao.ExchangeRate, error)
}

type ExchangeRateRepository struct {
	dao ExchangeRateDAO
}

func NewExchangeRateRepository(dao ExchangeRateDAO) *ExchangeRateRepository {
	return &ExchangeRateRepository{
		dao: dao,
	}
}

func (r *ExchangeRateRepository) LatestOnOrBefore(ctx context.Context, date time.Time) (domain.ExchangeRate, error) {
	found, err := r.dao.LatestOnOrBefore(ctx, date)
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("r.dao.LatestOnOrBefore -> %w", err)
	}

	return exchangeRateToDomain(found), nil
}

func (r *ExchangeRateRepository) ExistsAfter(ctx context.Context, date time.Time) (bool, error) {
	exists, err := r.dao.ExistsAfter(ctx, date)
	if err != nil {
		return false, fmt.Errorf("r.dao.ExistsAfter -> %w", err)
	}

	return exists, nil
}

func (r *ExchangeRateRepository) GetOrCreate(ctx context.Context, rate domain.ExchangeRate) (domain.ExchangeRate, bool, error) {
	found, created, err := r.dao.FirstOrCreate(ctx, exchangeRateToDAO(rate))
	if err != nil {
		return domain.ExchangeRate{}, false, fmt.Errorf("r.dao.FirstOrCreate -> %w", err)
	}

	return exchangeRateToDomain(found), created, nil
}

func (r *ExchangeRateRepository) Upsert(ctx context.Context, rate domain.ExchangeRate) (domain.ExchangeRate, error) {
	saved, err := r.dao.Upsert(ctx, exchangeRateToDAO(rate))
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("r.dao.Upsert -> %w", err)
	}

	return exchangeRateToDomain(saved), nil
}

func exchangeRateToDomain(r dao.ExchangeRate) domain.ExchangeRate {
	return domain.ExchangeRate{
		ID:     r.ID,
		Date:   r.Date,
		Rate:   r.Rate,
		Source: domain.RateSource(r.Source),
	}
}

func exchangeRateToDAO(r domain.ExchangeRate) dao.ExchangeRate {
	return dao.ExchangeRate{
		ID:     r.ID,
		Date:   r.Date,
		Rate:   r.Rate,
		Source: string(r.Source),
	}
}
