package response

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
)

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type RaffleDetail struct {
	domain.Raffle
	Stats domain.RaffleStats `json:"stats"`
}

type ParticipationCreated struct {
	ID           uint      `json:"id"`
	RaffleID     uint      `json:"raffle_id"`
	TicketCount  int       `json:"ticket_count"`
	ReservedTill time.Time `json:"reserved_until"`
}

type PaymentQuote struct {
	Amount       string           `json:"amount"`
	Currency     domain.Currency  `json:"currency"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate,omitempty"`
}

type LookupPayment struct {
	ID          uint                 `json:"id"`
	Status      domain.PaymentStatus `json:"status"`
	AmountToPay string               `json:"amount_to_pay"`
	PaymentDate string               `json:"payment_date"`
}

type LookupParticipation struct {
	ID          uint           `json:"id"`
	FullName    string         `json:"full_name"`
	TicketCount int            `json:"ticket_count"`
	Tickets     []string       `json:"tickets"`
	Payment     *LookupPayment `json:"payment,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewLookupParticipations renders ticket numbers zero padded to the width of
// the raffle's largest number.
func NewLookupParticipations(raffle domain.Raffle, participations []domain.Participation) []LookupParticipation {
	out := make([]LookupParticipation, 0, len(participations))
	for _, p := range participations {
		item := LookupParticipation{
			ID:          p.ID,
			FullName:    p.FullName,
			TicketCount: p.TicketCount,
			Tickets:     make([]string, 0, len(p.Tickets)),
			CreatedAt:   p.CreatedAt,
		}
		for _, t := range p.Tickets {
			item.Tickets = append(item.Tickets, raffle.FormatTicketNumber(t.Number))
		}
		if p.Payment != nil {
			item.Payment = &LookupPayment{
				ID:          p.Payment.ID,
				Status:      p.Payment.Status,
				AmountToPay: p.Payment.AmountToPay.StringFixed(2),
				PaymentDate: p.Payment.PaymentDate.Format(time.DateOnly),
			}
		}
		out = append(out, item)
	}

	return out
}

type Message struct {
	Message string `json:"message"`
}
