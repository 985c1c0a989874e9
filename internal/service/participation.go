package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/metrics"
)

// ReapScheduler enqueues the expiration check of a new participation.
type ReapScheduler interface {
	ScheduleReap(ctx context.Context, participationID uint, due time.Time) error
}

type ParticipationService struct {
	tx             Transactor
	raffles        RaffleRepository
	participations ParticipationRepository
	audit          Auditor
	scheduler      ReapScheduler
	notifier       Notifier
	reservationTTL time.Duration
	now            func() time.Time
}

func NewParticipationService(
	tx Transactor,
	raffles RaffleRepository,
	participations ParticipationRepository,
	audit Auditor,
	scheduler ReapScheduler,
	notifier Notifier,
	reservationTTL time.Duration,
) *ParticipationService {
	if notifier == nil {
		notifier = nopNotifier{}
	}

	return &ParticipationService{
		tx:             tx,
		raffles:        raffles,
		participations: participations,
		audit:          audit,
		scheduler:      scheduler,
		notifier:       notifier,
		reservationTTL: reservationTTL,
		now:            time.Now,
	}
}

// Create reserves participation.TicketCount tickets without assigning
// numbers. The reservation expires unless a payment is reported in time.
func (s *ParticipationService) Create(ctx context.Context, participation domain.Participation) (domain.Participation, error) {
	var created domain.Participation

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		raffle, err := s.raffles.LockByID(ctx, participation.RaffleID)
		if err != nil {
			return fmt.Errorf("s.raffles.LockByID -> %w", err)
		}

		if !raffle.IsOpen() {
			return ErrRaffleNotAvailable
		}
		if participation.TicketCount < raffle.MinTicketPurchase {
			return fmt.Errorf("%w: minimum is %d", ErrBelowMinimumPurchase, raffle.MinTicketPurchase)
		}

		reserved, err := s.raffles.ReservedTicketCount(ctx, raffle.ID)
		if err != nil {
			return fmt.Errorf("s.raffles.ReservedTicketCount -> %w", err)
		}
		if available := raffle.AvailableTickets(reserved); participation.TicketCount > available {
			return fmt.Errorf("%w: requested %d, available %d", ErrNotEnoughTickets, participation.TicketCount, available)
		}

		participation.ComputeHashes()
		created, err = s.participations.Create(ctx, participation)
		if err != nil {
			return fmt.Errorf("s.participations.Create -> %w", err)
		}

		return s.audit.Record(ctx, domain.EntityParticipation, created.ID, domain.ActionCreated, nil, created)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRaffleNotAvailable):
			metrics.RecordParticipation("not_available")
		case errors.Is(err, ErrNotEnoughTickets):
			metrics.RecordParticipation("not_enough")
		default:
			metrics.RecordParticipation("fail")
		}

		return domain.Participation{}, err
	}

	metrics.RecordParticipation("created")

	// A failed enqueue leaves a reservation that only an operator can clear,
	// but the participation itself is valid.
	due := s.now().Add(s.reservationTTL)
	if err = s.scheduler.ScheduleReap(ctx, created.ID, due); err != nil {
		zap.L().Error("failed to schedule participation expiry",
			zap.Uint("participation_id", created.ID),
			zap.Error(err),
		)
	}

	s.notifier.Publish(domain.RaffleEvent{RaffleID: created.RaffleID, Type: domain.EventStatsChanged})

	return created, nil
}

// Lookup returns the participations of one person in a raffle, newest first.
// The person is matched by the hashes of all three contact fields.
func (s *ParticipationService) Lookup(ctx context.Context, raffleID uint, identificationNumber, phone, email string) ([]domain.Participation, error) {
	found, err := s.participations.FindByContactHashes(
		ctx,
		raffleID,
		domain.HashContact(identificationNumber),
		domain.HashContact(phone),
		domain.HashContact(email),
	)
	if err != nil {
		return nil, fmt.Errorf("s.participations.FindByContactHashes -> %w", err)
	}

	return found, nil
}
