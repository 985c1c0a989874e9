package service

import (
	"errors"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository"
)

// Availability.
var (
	ErrRaffleNotAvailable   = errors.New("raffle is not accepting participations")
	ErrNotEnoughTickets     = errors.New("not enough tickets available")
	ErrBelowMinimumPurchase = errors.New("ticket count is below the raffle minimum purchase")
	ErrInsufficientTickets  = errors.New("not enough free ticket numbers to allocate")
	ErrTicketNumberTaken    = repository.ErrTicketNumberTaken
)

// Conflicts.
var (
	ErrAlreadyAssigned      = errors.New("participation already has tickets")
	ErrDuplicatePayment     = repository.ErrDuplicatePayment
	ErrPaymentAlreadyExists = repository.ErrPaymentAlreadyExists
)

// Invalid references.
var (
	ErrInvalidPaymentMethod      = errors.New("payment method is not available for this raffle")
	ErrInvalidTransactionDetails = errors.New("invalid transaction details")
	ErrExchangeRateUnavailable   = errors.New("no exchange rate available for the payment date")
	ErrPaymentCalculation        = errors.New("cannot convert between the raffle and payment currencies")
)

// State.
var (
	ErrInvalidStatusTransition = errors.New("invalid payment status transition")
	ErrDrawProcessing          = errors.New("draw result cannot be processed")
	ErrRevokePrize             = errors.New("prize assignment cannot be revoked")
	ErrPrizeState              = errors.New("prize is not in a valid state for this operation")
)

// Not found.
var (
	ErrRaffleNotFound        = repository.ErrRaffleNotFound
	ErrParticipationNotFound = repository.ErrParticipationNotFound
	ErrPaymentNotFound       = repository.ErrPaymentNotFound
	ErrPaymentMethodNotFound = repository.ErrPaymentMethodNotFound
	ErrPrizeNotFound         = repository.ErrPrizeNotFound
	ErrDrawNotFound          = repository.ErrDrawNotFound
	ErrTicketNotFound        = repository.ErrTicketNotFound
	ErrUserNotFound          = repository.ErrUserNotFound
)
