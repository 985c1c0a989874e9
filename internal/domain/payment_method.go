package domain

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var ErrUnknownPaymentMethodKind = errors.New("unknown payment method kind")

type PaymentMethodKind string

const (
	PagoMovil     PaymentMethodKind = "PAGO_MOVIL"
	Transferencia PaymentMethodKind = "TRANSFERENCIA"
	Zelle         PaymentMethodKind = "ZELLE"
	Binance       PaymentMethodKind = "BINANCE"
)

// Keys used in PaymentMethod.Details and Payment.TransactionDetails.
const (
	DetailPhone         = "phone"
	DetailIDNumber      = "id_number"
	DetailBank          = "bank" // four digit code from the bank catalog
	DetailAccountNumber = "account_number"
	DetailHolderName    = "holder_name"
	DetailEmail         = "email"
	DetailPayID         = "pay_id"

	DetailReference    = "reference"
	DetailBinancePayID = "binance_pay_id"
)

func (k PaymentMethodKind) Currency() (Currency, error) {
	switch k {
	case Zelle, Binance:
		return CurrencyUSD, nil
	case PagoMovil, Transferencia:
		return CurrencyVEF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPaymentMethodKind, k)
	}
}

// RequiredDetails lists the fields the raffle owner must publish for a method.
func (k PaymentMethodKind) RequiredDetails() []string {
	switch k {
	case PagoMovil:
		return []string{DetailPhone, DetailIDNumber, DetailBank}
	case Transferencia:
		return []string{DetailAccountNumber, DetailHolderName, DetailIDNumber, DetailBank}
	case Zelle:
		return []string{DetailEmail, DetailHolderName}
	case Binance:
		return []string{DetailPayID, DetailHolderName}
	default:
		return nil
	}
}

// RequiredTransactionFields lists what a participant must report when paying.
func (k PaymentMethodKind) RequiredTransactionFields() []string {
	switch k {
	case PagoMovil, Transferencia:
		return []string{DetailReference}
	case Zelle:
		return []string{DetailReference, DetailEmail}
	case Binance:
		return []string{DetailReference, DetailBinancePayID}
	default:
		return nil
	}
}


type Bank struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type PaymentMethod struct {
	ID       uint              `json:"id"`
	Kind     PaymentMethodKind `json:"method_type"`
	Name     string            `json:"name"`
	Details  map[string]string `json:"details"`
	IsActive bool              `json:"is_active"`
}

func (m PaymentMethod) Currency() Currency {
	c, _ := m.Kind.Currency()

	return c
}

func (m PaymentMethod) Validate() error {
	if _, err := m.Kind.Currency(); err != nil {
		return err
	}

	if err := validation.Validate(m.Name, validation.Required); err != nil {
		return fmt.Errorf("name: %w", err)
	}

	if err := validateFields(m.Details, m.Kind.RequiredDetails(), m.Kind == Zelle); err != nil {
		return err
	}

	if code, ok := m.BankCode(); ok {
		return validation.Errors{DetailBank: validation.Validate(code, validation.Length(4, 4), is.Digit)}.Filter()
	}

	return nil
}

// BankCode returns the receiving bank of the VEF methods.
func (m PaymentMethod) BankCode() (string, bool) {
	if m.Kind != PagoMovil && m.Kind != Transferencia {
		return "", false
	}

	return m.Details[DetailBank], true
}

// ValidateTransactionDetails checks a reported payment against the method kind.
func (m PaymentMethod) ValidateTransactionDetails(details map[string]string) error {
	if _, err := m.Kind.Currency(); err != nil {
		return err
	}

	return validateFields(details, m.Kind.RequiredTransactionFields(), m.Kind == Zelle)
}

func validateFields(values map[string]string, required []string, email bool) error {
	errs := validation.Errors{}
	for _, field := range required {
		rules := []validation.Rule{validation.Required}
		if email && field == DetailEmail {
			rules = append(rules, is.Email)
		}
		if err := validation.Validate(values[field], rules...); err != nil {
			errs[field] = err
		}
	}

	return errs.Filter()
}
