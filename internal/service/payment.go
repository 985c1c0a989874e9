package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/metrics"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository"
)

type TicketAllocator interface {
	AssignTickets(ctx context.Context, participation domain.Participation) ([]domain.Ticket, error)
	RevokeTickets(ctx context.Context, participationID uint) (int, error)
}

type AmountCalculator interface {
	CalculatePaymentAmount(ctx context.Context, raffle domain.Raffle, participation domain.Participation, method domain.PaymentMethod, paymentDate time.Time) (PaymentQuote, error)
}

type CreatePaymentInput struct {
	ParticipationID    uint
	PaymentMethodID    uint
	PaymentDate        time.Time
	TransactionDetails map[string]string
}

type BulkAction string

const (
	BulkApprove BulkAction = "approve"
	BulkReject  BulkAction = "reject"
	BulkDelete  BulkAction = "delete"
)

type BulkResult struct {
	Succeeded []uint          `json:"succeeded"`
	Failed    map[uint]string `json:"failed"`
}

// PaymentService drives payments through PENDING, APPROVED and REJECTED and
// keeps ticket allocation in step with the APPROVED state.
type PaymentService struct {
	tx             Transactor
	raffles        RaffleRepository
	participations ParticipationRepository
	payments       PaymentRepository
	methods        PaymentMethodRepository
	tickets        TicketRepository
	allocator      TicketAllocator
	calculator     AmountCalculator
	audit          Auditor
	notifier       Notifier
	now            func() time.Time
}

func NewPaymentService(
	tx Transactor,
	raffles RaffleRepository,
	participations ParticipationRepository,
	payments PaymentRepository,
	methods PaymentMethodRepository,
	tickets TicketRepository,
	allocator TicketAllocator,
	calculator AmountCalculator,
	audit Auditor,
	notifier Notifier,
) *PaymentService {
	if notifier == nil {
		notifier = nopNotifier{}
	}

	return &PaymentService{
		tx:             tx,
		raffles:        raffles,
		participations: participations,
		payments:       payments,
		methods:        methods,
		tickets:        tickets,
		allocator:      allocator,
		calculator:     calculator,
		audit:          audit,
		notifier:       notifier,
		now:            time.Now,
	}
}

// Quote previews the amount owed for a participation with a given method.
func (s *PaymentService) Quote(ctx context.Context, participationID, methodID uint, paymentDate time.Time) (PaymentQuote, error) {
	participation, err := s.participations.FindByID(ctx, participationID)
	if err != nil {
		return PaymentQuote{}, fmt.Errorf("s.participations.FindByID -> %w", err)
	}

	raffle, method, err := s.raffleAndMethod(ctx, participation.RaffleID, methodID)
	if err != nil {
		return PaymentQuote{}, err
	}

	quote, err := s.calculator.CalculatePaymentAmount(ctx, raffle, participation, method, paymentDate)
	if err != nil {
		return PaymentQuote{}, fmt.Errorf("s.calculator.CalculatePaymentAmount -> %w", err)
	}

	return quote, nil
}

// Create records a reported payment as PENDING. The same transfer cannot be
// reported twice: the hash of method, reference, date and amount is unique.
func (s *PaymentService) Create(ctx context.Context, input CreatePaymentInput) (domain.Payment, error) {
	var created domain.Payment

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		participation, err := s.participations.LockByID(ctx, input.ParticipationID)
		if err != nil {
			return fmt.Errorf("s.participations.LockByID -> %w", err)
		}

		exists, err := s.payments.ExistsForParticipation(ctx, participation.ID)
		if err != nil {
			return fmt.Errorf("s.payments.ExistsForParticipation -> %w", err)
		}
		if exists {
			return ErrPaymentAlreadyExists
		}

		raffle, method, err := s.raffleAndMethod(ctx, participation.RaffleID, input.PaymentMethodID)
		if err != nil {
			return err
		}

		if err = method.ValidateTransactionDetails(input.TransactionDetails); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTransactionDetails, err)
		}

		quote, err := s.calculator.CalculatePaymentAmount(ctx, raffle, participation, method, input.PaymentDate)
		if err != nil {
			return fmt.Errorf("s.calculator.CalculatePaymentAmount -> %w", err)
		}

		hash := domain.GeneratePaymentHash(method.ID, input.TransactionDetails[domain.DetailReference], input.PaymentDate, quote.Amount)
		duplicate, err := s.payments.ExistsByHash(ctx, hash)
		if err != nil {
			return fmt.Errorf("s.payments.ExistsByHash -> %w", err)
		}
		if duplicate {
			return ErrDuplicatePayment
		}

		created, err = s.payments.Create(ctx, domain.Payment{
			ParticipationID:       participation.ID,
			PaymentMethodID:       method.ID,
			TransactionDetails:    input.TransactionDetails,
			PaymentDate:           input.PaymentDate,
			AmountToPay:           quote.Amount,
			ExchangeRateApplied:   quote.Rate,
			PaymentHash:           hash,
			Status:                domain.PaymentPending,
			TicketPriceAtCreation: raffle.TicketPrice,
			TicketCountAtCreation: participation.TicketCount,
		})
		if err != nil {
			return fmt.Errorf("s.payments.Create -> %w", err)
		}

		return s.audit.Record(ctx, domain.EntityPayment, created.ID, domain.ActionCreated, nil, created)
	})
	if err != nil {
		return domain.Payment{}, err
	}

	metrics.RecordPaymentTransition(string(domain.PaymentPending))

	return created, nil
}

// Approve marks the payment APPROVED and allocates tickets unless the
// participation already holds some, which makes repeated approvals safe.
func (s *PaymentService) Approve(ctx context.Context, paymentID, verifiedBy uint) (domain.Payment, error) {
	var approved domain.Payment
	var raffleID uint

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		payment, err := s.payments.LockByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("s.payments.LockByID -> %w", err)
		}
		if payment.Status == domain.PaymentRejected {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, payment.Status, domain.PaymentApproved)
		}

		approved, raffleID, err = s.approveLocked(ctx, payment, verifiedBy)

		return err
	})
	if err != nil {
		return domain.Payment{}, err
	}

	metrics.RecordPaymentTransition(string(domain.PaymentApproved))
	s.notifier.Publish(domain.RaffleEvent{RaffleID: raffleID, Type: domain.EventStatsChanged})

	return approved, nil
}

// approveLocked expects the payment row to be locked by the caller.
func (s *PaymentService) approveLocked(ctx context.Context, payment domain.Payment, verifiedBy uint) (domain.Payment, uint, error) {
	participation, err := s.participations.FindByID(ctx, payment.ParticipationID)
	if err != nil {
		return domain.Payment{}, 0, fmt.Errorf("s.participations.FindByID -> %w", err)
	}

	count, err := s.tickets.CountByParticipation(ctx, participation.ID)
	if err != nil {
		return domain.Payment{}, 0, fmt.Errorf("s.tickets.CountByParticipation -> %w", err)
	}
	if count == 0 {
		if _, err = s.allocator.AssignTickets(ctx, participation); err != nil {
			return domain.Payment{}, 0, fmt.Errorf("s.allocator.AssignTickets -> %w", err)
		}
	}

	verifiedAt := s.now()
	payment.Status = domain.PaymentApproved
	payment.VerifiedBy = &verifiedBy
	payment.VerifiedAt = &verifiedAt

	updated, err := s.payments.Update(ctx, payment)
	if err != nil {
		return domain.Payment{}, 0, fmt.Errorf("s.payments.Update -> %w", err)
	}

	if err = s.audit.Record(ctx, domain.EntityPayment, updated.ID, domain.ActionApproved, &verifiedBy, updated); err != nil {
		return domain.Payment{}, 0, err
	}

	return updated, participation.RaffleID, nil
}

// RevertApproved takes back the tickets of an approved payment without
// touching its status. Callers set the new status themselves.
func (s *PaymentService) RevertApproved(ctx context.Context, paymentID, revertedBy uint) (int, error) {
	var revoked int

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		payment, err := s.payments.LockByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("s.payments.LockByID -> %w", err)
		}

		revoked, err = s.allocator.RevokeTickets(ctx, payment.ParticipationID)
		if err != nil {
			return fmt.Errorf("s.allocator.RevokeTickets -> %w", err)
		}

		return s.audit.Record(ctx, domain.EntityPayment, payment.ID, domain.ActionReverted, &revertedBy, payment)
	})
	if err != nil {
		return 0, err
	}

	return revoked, nil
}

// ChangeStatus applies an admin status change. Setting the current status
// again only updates the notes.
func (s *PaymentService) ChangeStatus(ctx context.Context, paymentID uint, next domain.PaymentStatus, actor uint, notes string) (domain.Payment, error) {
	if !next.IsValid() {
		return domain.Payment{}, fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, next)
	}

	var result domain.Payment
	var raffleID uint

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		payment, err := s.payments.LockByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("s.payments.LockByID -> %w", err)
		}

		if notes != "" {
			payment.VerificationNotes = notes
		}

		if payment.Status == next {
			result, err = s.payments.Update(ctx, payment)
			if err != nil {
				return fmt.Errorf("s.payments.Update -> %w", err)
			}

			return nil
		}

		if !payment.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, payment.Status, next)
		}

		if next == domain.PaymentApproved {
			result, raffleID, err = s.approveLocked(ctx, payment, actor)

			return err
		}

		if payment.Status == domain.PaymentApproved {
			if _, err = s.RevertApproved(ctx, payment.ID, actor); err != nil {
				return fmt.Errorf("s.RevertApproved -> %w", err)
			}
		}

		verifiedAt := s.now()
		payment.Status = next
		payment.VerifiedBy = &actor
		payment.VerifiedAt = &verifiedAt

		result, err = s.payments.Update(ctx, payment)
		if err != nil {
			return fmt.Errorf("s.payments.Update -> %w", err)
		}

		participation, err := s.participations.FindByID(ctx, payment.ParticipationID)
		if err != nil {
			return fmt.Errorf("s.participations.FindByID -> %w", err)
		}
		raffleID = participation.RaffleID

		action := domain.ActionUpdated
		if next == domain.PaymentRejected {
			action = domain.ActionRejected
		}

		return s.audit.Record(ctx, domain.EntityPayment, result.ID, action, &actor, result)
	})
	if err != nil {
		return domain.Payment{}, err
	}

	if raffleID != 0 {
		metrics.RecordPaymentTransition(string(next))
		s.notifier.Publish(domain.RaffleEvent{RaffleID: raffleID, Type: domain.EventStatsChanged})
	}

	return result, nil
}

func (s *PaymentService) Reject(ctx context.Context, paymentID, actor uint, notes string) (domain.Payment, error) {
	return s.ChangeStatus(ctx, paymentID, domain.PaymentRejected, actor, notes)
}

// SafeDelete removes a payment, taking back its tickets first when it was
// approved.
func (s *PaymentService) SafeDelete(ctx context.Context, paymentID, actor uint) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		payment, err := s.payments.LockByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("s.payments.LockByID -> %w", err)
		}

		if payment.Status == domain.PaymentApproved {
			if _, err = s.RevertApproved(ctx, payment.ID, actor); err != nil {
				return fmt.Errorf("s.RevertApproved -> %w", err)
			}
		}

		if err = s.payments.Delete(ctx, payment.ID); err != nil {
			return fmt.Errorf("s.payments.Delete -> %w", err)
		}

		return s.audit.Record(ctx, domain.EntityPayment, payment.ID, domain.ActionDeleted, &actor, payment)
	})
}

// Bulk applies action to every payment in its own transaction, so one
// failure does not undo the others.
func (s *PaymentService) Bulk(ctx context.Context, action BulkAction, paymentIDs []uint, actor uint) (BulkResult, error) {
	result := BulkResult{Succeeded: []uint{}, Failed: map[uint]string{}}

	for _, id := range paymentIDs {
		var err error
		switch action {
		case BulkApprove:
			_, err = s.Approve(ctx, id, actor)
		case BulkReject:
			_, err = s.Reject(ctx, id, actor, "")
		case BulkDelete:
			err = s.SafeDelete(ctx, id, actor)
		default:
			return BulkResult{}, fmt.Errorf("unknown bulk action %q", action)
		}

		if err != nil {
			zap.L().Warn("bulk payment action failed",
				zap.String("action", string(action)),
				zap.Uint("payment_id", id),
				zap.Error(err),
			)
			result.Failed[id] = err.Error()
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	return result, nil
}

func (s *PaymentService) raffleAndMethod(ctx context.Context, raffleID, methodID uint) (domain.Raffle, domain.PaymentMethod, error) {
	raffle, err := s.raffles.FindByID(ctx, raffleID)
	if err != nil {
		return domain.Raffle{}, domain.PaymentMethod{}, fmt.Errorf("s.raffles.FindByID -> %w", err)
	}

	method, err := s.methods.FindByID(ctx, methodID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentMethodNotFound) {
			return domain.Raffle{}, domain.PaymentMethod{}, ErrInvalidPaymentMethod
		}

		return domain.Raffle{}, domain.PaymentMethod{}, fmt.Errorf("s.methods.FindByID -> %w", err)
	}
	if !method.IsActive || !raffle.AcceptsPaymentMethod(method.ID) {
		return domain.Raffle{}, domain.PaymentMethod{}, ErrInvalidPaymentMethod
	}

	return raffle, method, nil
}
