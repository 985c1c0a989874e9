package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyVEF Currency = "VEF"
)

type RaffleStatus string

const (
	RaffleInProgress        RaffleStatus = "IN_PROGRESS"
	RaffleProcessingWinners RaffleStatus = "PROCESSING_WINNERS"
	RaffleFinished          RaffleStatus = "FINISHED"
	RaffleCancelled         RaffleStatus = "CANCELLED"
)

type Raffle struct {
	ID                 uint            `json:"id"`
	Title              string          `json:"title"`
	Slug               string          `json:"slug"`
	Description        string          `json:"description"`
	PromotionalMessage string          `json:"promotional_message,omitempty"`
	Currency           Currency        `json:"currency"`
	TicketPrice        decimal.Decimal `json:"ticket_price"`
	TotalTickets       int             `json:"total_tickets"`
	MinTicketPurchase  int             `json:"min_ticket_purchase"`
	Status             RaffleStatus    `json:"status"`
	IsActive           bool            `json:"is_active"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            *time.Time      `json:"end_date,omitempty"`
	PaymentMethods     []PaymentMethod `json:"payment_methods,omitempty"`
	Prizes             []Prize         `json:"prizes,omitempty"`
}

// IsOpen reports whether the raffle accepts new participations.
func (r Raffle) IsOpen() bool {
	return r.IsActive && r.Status == RaffleInProgress
}

func (r Raffle) AcceptsPaymentMethod(methodID uint) bool {
	for _, m := range r.PaymentMethods {
		if m.ID == methodID {
			return true
		}
	}

	return false
}

// AvailableTickets is total_tickets minus the tickets held by live
// participations. It is zero for raffles that are not in progress.
func (r Raffle) AvailableTickets(reserved int64) int {
	if r.Status != RaffleInProgress {
		return 0
	}

	available := int64(r.TotalTickets) - reserved
	if available < 0 {
		return 0
	}

	return int(available)
}

// TicketNumberDigits is the width used to zero pad ticket numbers.
func (r Raffle) TicketNumberDigits() int {
	if r.TotalTickets < 1 {
		return 0
	}

	return len(strconv.Itoa(r.TotalTickets - 1))
}

func (r Raffle) FormatTicketNumber(n int) string {
	return fmt.Sprintf("%0*d", r.TicketNumberDigits(), n)
}

type RaffleStats struct {
	TicketsAvailable   int    `json:"tickets_available"`
	ProgressPercentage string `json:"tickets_progress_percentage"`
}

// NewRaffleStats computes the sold percentage rounded half-up to 2 places.
func NewRaffleStats(r Raffle, reserved int64) RaffleStats {
	available := r.AvailableTickets(reserved)
	if r.Status != RaffleInProgress || r.TotalTickets <= 0 {
		return RaffleStats{TicketsAvailable: available, ProgressPercentage: "100.00"}
	}

	sold := decimal.NewFromInt(int64(r.TotalTickets - available))
	pct := sold.Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(r.TotalTickets)))

	return RaffleStats{
		TicketsAvailable:   available,
		ProgressPercentage: pct.StringFixed(2),
	}
}

// GenerateSlug builds a URL slug from the title with a timestamp suffix.
func GenerateSlug(title string, now time.Time) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFKD.String(strings.ToLower(title)) {
		switch {
		case r > unicode.MaxASCII:
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case (unicode.IsSpace(r) || r == '-' || r == '_') && b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}

	base := strings.TrimSuffix(b.String(), "-")
	if base == "" {
		base = "raffle"
	}

	return base + "-" + now.Format("060102150405")
}
