package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/ratesource"
)

type rateFixture struct {
	db       *memDB
	source   *fakeRateSource
	attempts *fakeAttempts
	audit    *fakeAuditor
	svc      *ExchangeRateService
}

// Friday 17:30 in Caracas.
var rateNow = time.Date(2024, 3, 8, 21, 30, 0, 0, time.UTC)

func newRateFixture(t *testing.T) *rateFixture {
	t.Helper()

	caracas, err := time.LoadLocation("America/Caracas")
	require.NoError(t, err)

	f := &rateFixture{
		db:       newMemDB(),
		source:   &fakeRateSource{},
		attempts: newFakeAttempts(),
		audit:    &fakeAuditor{},
	}
	f.svc = NewExchangeRateService(fakeRates{f.db}, f.source, f.attempts, f.audit, 3, 24*time.Hour, caracas)
	f.svc.now = func() time.Time { return rateNow }

	return f
}

func monday(rate string) ratesource.Rates {
	return ratesource.Rates{
		Date:  time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		Rates: map[string]decimal.Decimal{"USD": decimal.RequireFromString(rate), "EUR": decimal.RequireFromString("39.70")},
	}
}

const attemptsKey = "bcv_update_attempts_2024-03-08"

func TestExchangeRateService_UpdateOfficialRate(t *testing.T) {
	ctx := context.Background()
	f := newRateFixture(t)
	f.source.rates = monday("36.2431")

	stored, created, err := f.svc.UpdateOfficialRate(ctx)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "2024-03-11", stored.Date.Format(time.DateOnly))
	assert.Equal(t, "36.2431", stored.Rate.String())
	assert.Equal(t, domain.RateSourceScraper, stored.Source)
	assert.Equal(t, 1, f.attempts.counts[attemptsKey])
	assert.Equal(t, 24*time.Hour, f.attempts.ttls[attemptsKey])
	assert.Equal(t, []domain.AuditAction{domain.ActionRateFetched}, f.audit.actions(domain.EntityExchangeRate, stored.ID))

	stored, created, err = f.svc.UpdateOfficialRate(ctx)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, stored.ID)
	assert.Equal(t, 1, f.source.calls)
	assert.Equal(t, 1, f.attempts.counts[attemptsKey])
}

func TestExchangeRateService_UpdateOfficialRate_NotPublished(t *testing.T) {
	ctx := context.Background()
	f := newRateFixture(t)
	f.source.rates = ratesource.Rates{
		Date:  time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
		Rates: map[string]decimal.Decimal{"USD": decimal.RequireFromString("36")},
	}

	for i := 1; i <= 3; i++ {
		_, _, err := f.svc.UpdateOfficialRate(ctx)
		assert.ErrorIs(t, err, ErrRateNotPublished)
		assert.Equal(t, i, f.attempts.counts[attemptsKey])
	}

	_, _, err := f.svc.UpdateOfficialRate(ctx)
	assert.ErrorIs(t, err, ErrRateAttemptsExhausted)
	assert.Equal(t, 3, f.source.calls)
	assert.Empty(t, f.db.rates)
}

func TestExchangeRateService_UpdateOfficialRate_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch error still counts the attempt", func(t *testing.T) {
		f := newRateFixture(t)
		f.source.err = errors.New("connection reset")

		_, _, err := f.svc.UpdateOfficialRate(ctx)
		assert.ErrorContains(t, err, "connection reset")
		assert.Equal(t, 1, f.attempts.counts[attemptsKey])
	})

	t.Run("usd missing", func(t *testing.T) {
		f := newRateFixture(t)
		rates := monday("36")
		delete(rates.Rates, "USD")
		f.source.rates = rates

		_, _, err := f.svc.UpdateOfficialRate(ctx)
		assert.ErrorIs(t, err, ratesource.ErrMissingUSD)
	})

	t.Run("rate for today does not stop the update", func(t *testing.T) {
		f := newRateFixture(t)
		f.source.rates = monday("36")
		f.db.rates[1] = domain.ExchangeRate{ID: 1, Date: time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), Rate: decimal.RequireFromString("35")}

		stored, created, err := f.svc.UpdateOfficialRate(ctx)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "36", stored.Rate.String())
		assert.Len(t, f.db.rates, 2)
	})
}

func TestExchangeRateService_RunScheduledUpdate(t *testing.T) {
	f := newRateFixture(t)
	f.source.err = errors.New("timeout")
	f.attempts.counts[attemptsKey] = 3

	assert.NotPanics(t, func() { f.svc.RunScheduledUpdate(context.Background()) })
	assert.Zero(t, f.source.calls)
}

func TestExchangeRateService_SetManualRate(t *testing.T) {
	ctx := context.Background()
	f := newRateFixture(t)
	day := time.Date(2024, 3, 11, 14, 0, 0, 0, time.UTC)

	saved, err := f.svc.SetManualRate(ctx, domain.ExchangeRate{Date: day, Rate: decimal.RequireFromString("36.10")}, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.RateSourceManual, saved.Source)
	assert.Equal(t, "2024-03-11", saved.Date.Format(time.DateOnly))

	replaced, err := f.svc.SetManualRate(ctx, domain.ExchangeRate{Date: day, Rate: decimal.RequireFromString("36.30")}, admin)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, replaced.ID)
	assert.Equal(t, "36.3", replaced.Rate.String())
	assert.Len(t, f.db.rates, 1)

	_, err = f.svc.SetManualRate(ctx, domain.ExchangeRate{Date: day, Rate: decimal.Zero}, admin)
	assert.ErrorIs(t, err, ErrInvalidRate)
}
