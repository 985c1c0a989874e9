package request

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/shopspring/decimal"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
)

var (
	errInvalidDate      = errors.New("must be a date formatted as YYYY-MM-DD")
	errNotPositive      = errors.New("must be greater than zero")
	errDuplicateIDs     = errors.New("must not contain duplicates")
	errDrawTimeInPast   = errors.New("must be in the future")
	errNegativeNumber   = errors.New("must not be negative")
	errInvalidDecimals  = errors.New("must be a decimal number")
	errReferenceTooLong = errors.New("reference must be at most 100 characters")
)

// dateRule accepts YYYY-MM-DD strings.
var dateRule = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return errInvalidDate
	}

	return nil
})

// ParseDate must only be called on values that passed dateRule.
func ParseDate(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)

	return t
}

type CreateParticipationRequest struct {
	RaffleID             uint   `json:"raffle_id"`
	FullName             string `json:"full_name"`
	IdentificationNumber string `json:"identification_number"`
	Phone                string `json:"phone"`
	Email                string `json:"email"`
	TicketCount          int    `json:"ticket_count"`
}

func (req *CreateParticipationRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.RaffleID, validation.Required),
		validation.Field(&req.FullName, validation.Required, fullName),
		validation.Field(&req.IdentificationNumber, validation.Required, naturalPersonID),
		validation.Field(&req.Phone, validation.Required, venezuelanPhone),
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.TicketCount, validation.Required, validation.Min(1)),
	)
}

func (req *CreateParticipationRequest) ToDomain() domain.Participation {
	return domain.Participation{
		RaffleID:             req.RaffleID,
		FullName:             req.FullName,
		IdentificationNumber: req.IdentificationNumber,
		Phone:                req.Phone,
		Email:                req.Email,
		TicketCount:          req.TicketCount,
	}
}

type TicketLookupRequest struct {
	RaffleID             uint   `json:"raffle_id"`
	IdentificationNumber string `json:"identification_number"`
	Phone                string `json:"phone"`
	Email                string `json:"email"`
}

func (req *TicketLookupRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.RaffleID, validation.Required),
		validation.Field(&req.IdentificationNumber, validation.Required, naturalPersonID),
		validation.Field(&req.Phone, validation.Required, venezuelanPhone),
		validation.Field(&req.Email, validation.Required, is.Email),
	)
}

type CalculateAmountQuery struct {
	ParticipationID uint   `form:"participation_id"`
	PaymentMethodID uint   `form:"payment_method_id"`
	PaymentDate     string `form:"payment_date"`
}

func (req *CalculateAmountQuery) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ParticipationID, validation.Required),
		validation.Field(&req.PaymentMethodID, validation.Required),
		validation.Field(&req.PaymentDate, validation.Required, dateRule),
	)
}

type CreatePaymentRequest struct {
	ParticipationID    uint              `json:"participation_id"`
	PaymentMethodID    uint              `json:"payment_method_id"`
	PaymentDate        string            `json:"payment_date" format:"YYYY-MM-DD"`
	TransactionDetails map[string]string `json:"transaction_details"`
}

// Validate checks the envelope only. The fields required inside
// TransactionDetails depend on the payment method and are checked by the
// service.
func (req *CreatePaymentRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ParticipationID, validation.Required),
		validation.Field(&req.PaymentMethodID, validation.Required),
		validation.Field(&req.PaymentDate, validation.Required, dateRule),
		validation.Field(&req.TransactionDetails, validation.Required, validation.By(func(value interface{}) error {
			details, _ := value.(map[string]string)
			if ref := details[domain.DetailReference]; len(ref) > 100 {
				return errReferenceTooLong
			}

			return nil
		})),
	)
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (req *ChangeStatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required, validation.In(
			string(domain.PaymentPending), string(domain.PaymentApproved), string(domain.PaymentRejected),
		)),
		validation.Field(&req.Notes, validation.Length(0, 500)),
	)
}

type BulkPaymentsRequest struct {
	Action string `json:"action"`
	IDs    []uint `json:"ids"`
}

func (req *BulkPaymentsRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Action, validation.Required, validation.In("approve", "reject", "delete")),
		validation.Field(&req.IDs, validation.Required, validation.Length(1, 500), validation.By(uniqueIDs)),
	)
}

func uniqueIDs(value interface{}) error {
	ids, _ := value.([]uint)
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			return errNotPositive
		}
		if _, ok := seen[id]; ok {
			return errDuplicateIDs
		}
		seen[id] = struct{}{}
	}

	return nil
}

type DrawResultRequest struct {
	WinningNumber *int `json:"winning_number"`
}

func (req *DrawResultRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.WinningNumber, validation.NotNil, validation.By(func(value interface{}) error {
			n, _ := value.(*int)
			if n != nil && *n < 0 {
				return errNegativeNumber
			}

			return nil
		})),
	)
}

type ScheduleDrawRequest struct {
	LotteryName string    `json:"lottery_name"`
	DrawTime    time.Time `json:"draw_time"`
}

func (req *ScheduleDrawRequest) Validate(now time.Time) error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.LotteryName, validation.Length(0, 100)),
		validation.Field(&req.DrawTime, validation.Required, validation.By(func(value interface{}) error {
			t, _ := value.(time.Time)
			if !t.After(now) {
				return errDrawTimeInPast
			}

			return nil
		})),
	)
}

type ExchangeRateRequest struct {
	Date string `json:"date" format:"YYYY-MM-DD"`
	Rate string `json:"rate" example:"36.5210"`
}

func (req *ExchangeRateRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Date, validation.Required, dateRule),
		validation.Field(&req.Rate, validation.Required, positiveDecimal),
	)
}

func (req *ExchangeRateRequest) ToDomain() domain.ExchangeRate {
	return domain.ExchangeRate{
		Date: ParseDate(req.Date),
		Rate: decimal.RequireFromString(req.Rate),
	}
}
