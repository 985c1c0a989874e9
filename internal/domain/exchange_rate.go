package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RateSource string

const (
	RateSourceScraper RateSource = "BCV_SCRAPER"
	RateSourceManual  RateSource = "MANUAL_INPUT"
)

// ExchangeRate is the number of VEF per USD, effective from Date.
type ExchangeRate struct {
	ID     uint            `json:"id"`
	Date   time.Time       `json:"date"`
	Rate   decimal.Decimal `json:"rate"`
	Source RateSource      `json:"source"`
}
