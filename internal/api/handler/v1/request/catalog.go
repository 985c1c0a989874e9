package request

import (
	"errors"
	"time"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/shopspring/decimal"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
)

var slugPattern = regexp2.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`, regexp2.None)

var (
	errInvalidSlug       = errors.New("must contain lowercase letters, digits and single dashes")
	errEndBeforeStart    = errors.New("must be after the start date")
	errMinAboveTotal     = errors.New("must not exceed total_tickets")
	errTooManyDecimals = errors.New("must have at most 2 decimal places")
)

var positiveDecimal = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return errInvalidDecimals
	}
	if !d.IsPositive() {
		return errNotPositive
	}

	return nil
})

type CreateRaffleRequest struct {
	Title              string     `json:"title"`
	Slug               string     `json:"slug,omitempty"`
	Description        string     `json:"description"`
	PromotionalMessage string     `json:"promotional_message"`
	Currency           string     `json:"currency" enums:"USD,VEF"`
	TicketPrice        string     `json:"ticket_price" example:"5.00"`
	TotalTickets       int        `json:"total_tickets"`
	MinTicketPurchase  int        `json:"min_ticket_purchase"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	PaymentMethodIDs   []uint     `json:"payment_method_ids"`
}

func (req *CreateRaffleRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(3, 200)),
		validation.Field(&req.Slug, validation.Length(0, 255), matchRule(slugPattern, errInvalidSlug)),
		validation.Field(&req.Currency, validation.Required, validation.In(string(domain.CurrencyUSD), string(domain.CurrencyVEF))),
		validation.Field(&req.TicketPrice, validation.Required, positiveDecimal, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if d, err := decimal.NewFromString(s); err == nil && d.Exponent() < -2 {
				return errTooManyDecimals
			}

			return nil
		})),
		validation.Field(&req.TotalTickets, validation.Required, validation.Min(1)),
		validation.Field(&req.MinTicketPurchase, validation.Min(0), validation.By(func(value interface{}) error {
			if n, _ := value.(int); req.TotalTickets > 0 && n > req.TotalTickets {
				return errMinAboveTotal
			}

			return nil
		})),
		validation.Field(&req.EndDate, validation.By(func(value interface{}) error {
			end, _ := value.(*time.Time)
			if end != nil && req.StartDate != nil && !end.After(*req.StartDate) {
				return errEndBeforeStart
			}

			return nil
		})),
		validation.Field(&req.PaymentMethodIDs, validation.Required, validation.By(uniqueIDs)),
	)
}

func (req *CreateRaffleRequest) ToDomain() domain.Raffle {
	raffle := domain.Raffle{
		Title:              req.Title,
		Slug:               req.Slug,
		Description:        req.Description,
		PromotionalMessage: req.PromotionalMessage,
		Currency:           domain.Currency(req.Currency),
		TicketPrice:        decimal.RequireFromString(req.TicketPrice),
		TotalTickets:       req.TotalTickets,
		MinTicketPurchase:  req.MinTicketPurchase,
		IsActive:           true,
		EndDate:            req.EndDate,
	}
	if req.StartDate != nil {
		raffle.StartDate = *req.StartDate
	}
	for _, id := range req.PaymentMethodIDs {
		raffle.PaymentMethods = append(raffle.PaymentMethods, domain.PaymentMethod{ID: id})
	}

	return raffle
}

type CreatePaymentMethodRequest struct {
	Kind    string            `json:"method_type" enums:"PAGO_MOVIL,TRANSFERENCIA,ZELLE,BINANCE"`
	Name    string            `json:"name"`
	Details map[string]string `json:"details"`
}

// Validate only checks the envelope. The details depend on the kind and are
// checked by the domain.
func (req *CreatePaymentMethodRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Kind, validation.Required, validation.In(
			string(domain.PagoMovil), string(domain.Transferencia), string(domain.Zelle), string(domain.Binance),
		)),
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Details, validation.Required),
	)
}

func (req *CreatePaymentMethodRequest) ToDomain() domain.PaymentMethod {
	return domain.PaymentMethod{
		Kind:     domain.PaymentMethodKind(req.Kind),
		Name:     req.Name,
		Details:  req.Details,
		IsActive: true,
	}
}
