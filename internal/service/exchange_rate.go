package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/metrics"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/ratesource"
)

const rateAttemptsKeyPrefix = "bcv_update_attempts_"

var (
	ErrRateAttemptsExhausted = errors.New("maximum rate update attempts reached for today")
	ErrRateNotPublished      = errors.New("next day rate not published yet")
	ErrInvalidRate           = errors.New("rate must be positive")
)

type RateSource interface {
	Fetch(ctx context.Context) (ratesource.Rates, error)
}

type AttemptCounter interface {
	Get(ctx context.Context, key string) (int, error)
	Set(ctx context.Context, key string, n int, ttl time.Duration) error
}

type ExchangeRateService struct {
	rates       ExchangeRateRepository
	source      RateSource
	attempts    AttemptCounter
	audit       Auditor
	maxAttempts int
	attemptsTTL time.Duration
	location    *time.Location
	now         func() time.Time
}

func NewExchangeRateService(
	rates ExchangeRateRepository,
	source RateSource,
	attempts AttemptCounter,
	audit Auditor,
	maxAttempts int,
	attemptsTTL time.Duration,
	location *time.Location,
) *ExchangeRateService {
	if location == nil {
		location = time.Local
	}

	return &ExchangeRateService{
		rates:       rates,
		source:      source,
		attempts:    attempts,
		audit:       audit,
		maxAttempts: maxAttempts,
		attemptsTTL: attemptsTTL,
		location:    location,
		now:         time.Now,
	}
}

// UpdateOfficialRate fetches the next business day's rate. It runs several
// times each afternoon; once the rate is stored, later runs stop early, and
// after maxAttempts runs in a day it gives up until tomorrow.
func (s *ExchangeRateService) UpdateOfficialRate(ctx context.Context) (domain.ExchangeRate, bool, error) {
	today := dateOf(s.now().In(s.location))
	key := rateAttemptsKeyPrefix + today.Format(time.DateOnly)

	attempt, err := s.attempts.Get(ctx, key)
	if err != nil {
		return domain.ExchangeRate{}, false, fmt.Errorf("s.attempts.Get -> %w", err)
	}
	attempt++
	if attempt > s.maxAttempts {
		metrics.RecordRateUpdate("exhausted")
		return domain.ExchangeRate{}, false, ErrRateAttemptsExhausted
	}

	done, err := s.rates.ExistsAfter(ctx, today)
	if err != nil {
		return domain.ExchangeRate{}, false, fmt.Errorf("s.rates.ExistsAfter -> %w", err)
	}
	if done {
		metrics.RecordRateUpdate("already_stored")
		return domain.ExchangeRate{}, false, nil
	}

	if err = s.attempts.Set(ctx, key, attempt, s.attemptsTTL); err != nil {
		return domain.ExchangeRate{}, false, fmt.Errorf("s.attempts.Set -> %w", err)
	}

	zap.L().Info("fetching official exchange rate", zap.Int("attempt", attempt), zap.Int("max", s.maxAttempts))

	fetched, err := s.source.Fetch(ctx)
	if err != nil {
		metrics.RecordRateUpdate("fetch_failed")
		return domain.ExchangeRate{}, false, fmt.Errorf("s.source.Fetch -> %w", err)
	}

	rateDate := dateOf(fetched.Date)
	if !rateDate.After(today) {
		metrics.RecordRateUpdate("not_published")
		return domain.ExchangeRate{}, false, fmt.Errorf("%w: source date %s", ErrRateNotPublished, rateDate.Format(time.DateOnly))
	}

	usd, ok := fetched.USD()
	if !ok || !usd.IsPositive() {
		metrics.RecordRateUpdate("fetch_failed")
		return domain.ExchangeRate{}, false, ratesource.ErrMissingUSD
	}

	stored, created, err := s.rates.GetOrCreate(ctx, domain.ExchangeRate{
		Date:   rateDate,
		Rate:   usd,
		Source: domain.RateSourceScraper,
	})
	if err != nil {
		return domain.ExchangeRate{}, false, fmt.Errorf("s.rates.GetOrCreate -> %w", err)
	}

	if created {
		if err = s.audit.Record(ctx, domain.EntityExchangeRate, stored.ID, domain.ActionRateFetched, nil, stored); err != nil {
			zap.L().Warn("failed to audit fetched rate", zap.Error(err))
		}
	}
	metrics.RecordRateUpdate("stored")

	return stored, created, nil
}

// RunScheduledUpdate is the cron entry point. It never fails.
func (s *ExchangeRateService) RunScheduledUpdate(ctx context.Context) {
	stored, created, err := s.UpdateOfficialRate(ctx)
	switch {
	case errors.Is(err, ErrRateAttemptsExhausted):
		zap.L().Warn("maximum rate update attempts reached for today, stopping")
	case err != nil:
		zap.L().Warn("rate update attempt failed", zap.Error(err))
	case stored.ID == 0:
		zap.L().Info("a future rate already exists, nothing to do")
	case created:
		zap.L().Info("stored new official rate", zap.Time("date", stored.Date), zap.String("rate", stored.Rate.String()))
	default:
		zap.L().Info("rate for date already existed", zap.Time("date", stored.Date))
	}
}

// SetManualRate stores or replaces the rate of a date by hand.
func (s *ExchangeRateService) SetManualRate(ctx context.Context, rate domain.ExchangeRate, actor uint) (domain.ExchangeRate, error) {
	if !rate.Rate.IsPositive() {
		return domain.ExchangeRate{}, ErrInvalidRate
	}
	rate.Date = dateOf(rate.Date)
	rate.Source = domain.RateSourceManual

	saved, err := s.rates.Upsert(ctx, rate)
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("s.rates.Upsert -> %w", err)
	}

	if err = s.audit.Record(ctx, domain.EntityExchangeRate, saved.ID, domain.ActionUpdated, &actor, saved); err != nil {
		zap.L().Warn("failed to audit manual rate", zap.Error(err))
	}

	return saved, nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
