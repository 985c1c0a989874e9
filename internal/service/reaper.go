package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/jobs"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/metrics"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository"
)

// ReaperService releases reservations whose payment never arrived.
type ReaperService struct {
	tx             Transactor
	participations ParticipationRepository
	payments       PaymentRepository
	audit          Auditor
	notifier       Notifier
}

func NewReaperService(tx Transactor, participations ParticipationRepository, payments PaymentRepository, audit Auditor, notifier Notifier) *ReaperService {
	if notifier == nil {
		notifier = nopNotifier{}
	}

	return &ReaperService{
		tx:             tx,
		participations: participations,
		payments:       payments,
		audit:          audit,
		notifier:       notifier,
	}
}

// ReapExpiredParticipation deletes the participation if it still has no
// payment. It is safe to run more than once and never returns an error:
// failures are logged.
func (s *ReaperService) ReapExpiredParticipation(ctx context.Context, participationID uint) {
	outcome, raffleID, err := s.reap(ctx, participationID)
	if err != nil {
		metrics.RecordReaper("fail")
		zap.L().Error("failed to reap participation", zap.Uint("participation_id", participationID), zap.Error(err))

		return
	}

	metrics.RecordReaper(outcome)
	switch outcome {
	case "missing":
		zap.L().Info("participation already gone, nothing to reap", zap.Uint("participation_id", participationID))
	case "reaped":
		zap.L().Info("reaped unpaid participation", zap.Uint("participation_id", participationID))
		s.notifier.Publish(domain.RaffleEvent{RaffleID: raffleID, Type: domain.EventStatsChanged})
	}
}

func (s *ReaperService) reap(ctx context.Context, participationID uint) (string, uint, error) {
	outcome := "kept"
	var raffleID uint

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		participation, err := s.participations.LockByID(ctx, participationID)
		if err != nil {
			if errors.Is(err, repository.ErrParticipationNotFound) {
				outcome = "missing"
				return nil
			}

			return fmt.Errorf("s.participations.LockByID -> %w", err)
		}

		paid, err := s.payments.ExistsForParticipation(ctx, participation.ID)
		if err != nil {
			return fmt.Errorf("s.payments.ExistsForParticipation -> %w", err)
		}
		if paid {
			return nil
		}

		if err = s.participations.Delete(ctx, participation.ID); err != nil {
			if errors.Is(err, repository.ErrParticipationNotFound) {
				outcome = "missing"
				return nil
			}

			return fmt.Errorf("s.participations.Delete -> %w", err)
		}
		outcome = "reaped"
		raffleID = participation.RaffleID

		return s.audit.Record(ctx, domain.EntityParticipation, participation.ID, domain.ActionExpired, nil, participation)
	})
	if err != nil {
		return "", 0, err
	}

	return outcome, raffleID, nil
}

// HandleJob adapts ReapExpiredParticipation to the delayed job runner.
func (s *ReaperService) HandleJob(ctx context.Context, job jobs.Job) error {
	s.ReapExpiredParticipation(ctx, job.EntityID)

	return nil
}
