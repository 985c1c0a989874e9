package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository"
)

// PaymentQuote is what a participant owes in the payment method's currency.
// Rate is nil when no conversion was needed.
type PaymentQuote struct {
	Amount   decimal.Decimal
	Currency domain.Currency
	Rate     *decimal.Decimal
}

type CurrencyService struct {
	rates ExchangeRateRepository
}

func NewCurrencyService(rates ExchangeRateRepository) *CurrencyService {
	return &CurrencyService{
		rates: rates,
	}
}

// CalculatePaymentAmount converts ticket price x ticket count into the
// method's currency using the latest rate effective on paymentDate. The
// converted amount is rounded once, half-up to 2 places.
func (s *CurrencyService) CalculatePaymentAmount(
	ctx context.Context,
	raffle domain.Raffle,
	participation domain.Participation,
	method domain.PaymentMethod,
	paymentDate time.Time,
) (PaymentQuote, error) {
	if !raffle.AcceptsPaymentMethod(method.ID) {
		return PaymentQuote{}, ErrInvalidPaymentMethod
	}

	target, err := method.Kind.Currency()
	if err != nil {
		return PaymentQuote{}, fmt.Errorf("%w: %v", ErrInvalidPaymentMethod, err)
	}

	base := raffle.TicketPrice.Mul(decimal.NewFromInt(int64(participation.TicketCount)))
	if raffle.Currency == target {
		return PaymentQuote{Amount: base, Currency: target}, nil
	}

	rate, err := s.rates.LatestOnOrBefore(ctx, paymentDate)
	if err != nil {
		if errors.Is(err, repository.ErrExchangeRateNotFound) {
			return PaymentQuote{}, fmt.Errorf("%w: %s", ErrExchangeRateUnavailable, paymentDate.Format(time.DateOnly))
		}

		return PaymentQuote{}, fmt.Errorf("s.rates.LatestOnOrBefore -> %w", err)
	}
	if !rate.Rate.IsPositive() {
		return PaymentQuote{}, fmt.Errorf("%w: non positive rate for %s", ErrPaymentCalculation, rate.Date.Format(time.DateOnly))
	}

	var amount decimal.Decimal
	switch {
	case raffle.Currency == domain.CurrencyUSD && target == domain.CurrencyVEF:
		amount = base.Mul(rate.Rate)
	case raffle.Currency == domain.CurrencyVEF && target == domain.CurrencyUSD:
		amount = base.Div(rate.Rate)
	default:
		return PaymentQuote{}, fmt.Errorf("%w: %s to %s", ErrPaymentCalculation, raffle.Currency, target)
	}

	applied := rate.Rate

	return PaymentQuote{
		Amount:   amount.Round(2),
		Currency: target,
		Rate:     &applied,
	}, nil
}
