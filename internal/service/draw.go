package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/metrics"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository"
)

// DrawOutcome describes what a submitted lottery result did. NextDraw is set
// when the draw rolled over; Winner is set when a ticket matched.
type DrawOutcome struct {
	Draw     domain.Draw           `json:"draw"`
	Prize    domain.Prize          `json:"prize"`
	Winner   *domain.Participation `json:"winner,omitempty"`
	NextDraw *domain.Draw          `json:"next_draw,omitempty"`
	Message  string                `json:"message"`
}

// DrawService resolves prizes against external lottery results.
type DrawService struct {
	tx             Transactor
	prizes         PrizeRepository
	draws          DrawRepository
	tickets        TicketRepository
	participations ParticipationRepository
	raffles        RaffleRepository
	audit          Auditor
	notifier       Notifier
	now            func() time.Time
}

func NewDrawService(
	tx Transactor,
	prizes PrizeRepository,
	draws DrawRepository,
	tickets TicketRepository,
	participations ParticipationRepository,
	raffles RaffleRepository,
	audit Auditor,
	notifier Notifier,
) *DrawService {
	if notifier == nil {
		notifier = nopNotifier{}
	}

	return &DrawService{
		tx:             tx,
		prizes:         prizes,
		draws:          draws,
		tickets:        tickets,
		participations: participations,
		raffles:        raffles,
		audit:          audit,
		notifier:       notifier,
		now:            time.Now,
	}
}

// ScheduleDraw opens a new draw for a prize that has no winner and no
// pending draw.
func (s *DrawService) ScheduleDraw(ctx context.Context, prizeID uint, lotteryName string, drawTime time.Time, actor uint) (domain.Draw, error) {
	if lotteryName == "" {
		lotteryName = domain.DefaultLotteryName
	}

	var created domain.Draw

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		prize, err := s.prizes.LockByID(ctx, prizeID)
		if err != nil {
			return fmt.Errorf("s.prizes.LockByID -> %w", err)
		}
		if prize.HasWinner() {
			return fmt.Errorf("%w: prize %d already has a winner", ErrPrizeState, prize.ID)
		}

		_, err = s.draws.LatestByPrizeAndStatus(ctx, prize.ID, domain.DrawScheduled)
		switch {
		case err == nil:
			return fmt.Errorf("%w: prize %d already has a scheduled draw", ErrPrizeState, prize.ID)
		case !errors.Is(err, repository.ErrDrawNotFound):
			return fmt.Errorf("s.draws.LatestByPrizeAndStatus -> %w", err)
		}

		created, err = s.draws.Create(ctx, domain.Draw{
			PrizeID:     prize.ID,
			LotteryName: lotteryName,
			DrawTime:    drawTime,
			Status:      domain.DrawScheduled,
		})
		if err != nil {
			return fmt.Errorf("s.draws.Create -> %w", err)
		}

		return s.audit.Record(ctx, domain.EntityDraw, created.ID, domain.ActionCreated, &actor, created)
	})
	if err != nil {
		return domain.Draw{}, err
	}

	return created, nil
}

// ProcessDrawResult records the winning number of a scheduled draw. A sold
// ticket with that number wins the prize; otherwise the draw rolls over to
// a new one 24 hours later.
func (s *DrawService) ProcessDrawResult(ctx context.Context, drawID uint, winningNumber int, actor uint) (DrawOutcome, error) {
	started := time.Now()
	var outcome DrawOutcome

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		draw, err := s.draws.LockByID(ctx, drawID)
		if err != nil {
			return fmt.Errorf("s.draws.LockByID -> %w", err)
		}
		if draw.Status != domain.DrawScheduled {
			return fmt.Errorf("%w: draw %d is %s", ErrDrawProcessing, draw.ID, draw.Status)
		}

		prize, err := s.prizes.LockByID(ctx, draw.PrizeID)
		if err != nil {
			return fmt.Errorf("s.prizes.LockByID -> %w", err)
		}
		if prize.HasWinner() {
			return fmt.Errorf("%w: prize %d already has a winner", ErrDrawProcessing, prize.ID)
		}

		raffle, err := s.raffles.FindByID(ctx, prize.RaffleID)
		if err != nil {
			return fmt.Errorf("s.raffles.FindByID -> %w", err)
		}

		draw.WinningNumber = &winningNumber

		ticket, err := s.tickets.FindByNumber(ctx, prize.RaffleID, winningNumber)
		switch {
		case err == nil:
			outcome, err = s.awardPrize(ctx, draw, prize, ticket, raffle, actor)
			return err
		case errors.Is(err, repository.ErrTicketNotFound):
			outcome, err = s.rollOver(ctx, draw, prize, raffle, actor)
			return err
		default:
			return fmt.Errorf("s.tickets.FindByNumber -> %w", err)
		}
	})
	if err != nil {
		metrics.RecordDraw("fail", "", started)
		return DrawOutcome{}, err
	}

	if outcome.Winner != nil {
		metrics.RecordDraw("success", "winner", started)
		s.notifier.Publish(domain.RaffleEvent{RaffleID: outcome.Prize.RaffleID, Type: domain.EventWinnerDrawn, Payload: outcome})
	} else {
		metrics.RecordDraw("success", "rolled_over", started)
		s.notifier.Publish(domain.RaffleEvent{RaffleID: outcome.Prize.RaffleID, Type: domain.EventDrawRolledOver, Payload: outcome})
	}

	return outcome, nil
}

func (s *DrawService) awardPrize(ctx context.Context, draw domain.Draw, prize domain.Prize, ticket domain.Ticket, raffle domain.Raffle, actor uint) (DrawOutcome, error) {
	winner, err := s.participations.FindByID(ctx, ticket.ParticipationID)
	if err != nil {
		return DrawOutcome{}, fmt.Errorf("s.participations.FindByID -> %w", err)
	}

	prize.AssignWinner(winner.ID, ticket.Number)
	if prize, err = s.prizes.Update(ctx, prize); err != nil {
		return DrawOutcome{}, fmt.Errorf("s.prizes.Update -> %w", err)
	}

	draw.Status = domain.DrawCompleted
	if draw, err = s.draws.Update(ctx, draw); err != nil {
		return DrawOutcome{}, fmt.Errorf("s.draws.Update -> %w", err)
	}

	if err = s.audit.Record(ctx, domain.EntityDraw, draw.ID, domain.ActionCompleted, &actor, draw); err != nil {
		return DrawOutcome{}, err
	}
	if err = s.audit.Record(ctx, domain.EntityPrize, prize.ID, domain.ActionAssigned, &actor, prize); err != nil {
		return DrawOutcome{}, err
	}

	return DrawOutcome{
		Draw:   draw,
		Prize:  prize,
		Winner: &winner,
		Message: fmt.Sprintf("Winner found: ticket %s belongs to %s.",
			raffle.FormatTicketNumber(ticket.Number), winner.FullName),
	}, nil
}

func (s *DrawService) rollOver(ctx context.Context, draw domain.Draw, prize domain.Prize, raffle domain.Raffle, actor uint) (DrawOutcome, error) {
	var err error

	draw.Status = domain.DrawRolledOver
	if draw, err = s.draws.Update(ctx, draw); err != nil {
		return DrawOutcome{}, fmt.Errorf("s.draws.Update -> %w", err)
	}

	next, err := s.draws.Create(ctx, domain.Draw{
		PrizeID:     prize.ID,
		LotteryName: draw.LotteryName,
		DrawTime:    draw.DrawTime.Add(domain.RolloverDelay),
		Status:      domain.DrawScheduled,
	})
	if err != nil {
		return DrawOutcome{}, fmt.Errorf("s.draws.Create -> %w", err)
	}

	if err = s.audit.Record(ctx, domain.EntityDraw, draw.ID, domain.ActionRolledOver, &actor, draw); err != nil {
		return DrawOutcome{}, err
	}
	if err = s.audit.Record(ctx, domain.EntityDraw, next.ID, domain.ActionCreated, &actor, next); err != nil {
		return DrawOutcome{}, err
	}

	return DrawOutcome{
		Draw:     draw,
		Prize:    prize,
		NextDraw: &next,
		Message: fmt.Sprintf("Number %s was not sold. The prize rolls over to %s.",
			raffle.FormatTicketNumber(*draw.WinningNumber), next.DrawTime.Format(time.RFC3339)),
	}, nil
}

// RevokePrizeAssignment undoes an undelivered award. The completed draw is
// marked ROLLED_OVER, which also stands for "revoked" in draw history; the
// audit log tells the two apart.
func (s *DrawService) RevokePrizeAssignment(ctx context.Context, prizeID, actor uint) (domain.Draw, error) {
	var next domain.Draw
	var raffleID uint

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		prize, err := s.prizes.LockByID(ctx, prizeID)
		if err != nil {
			return fmt.Errorf("s.prizes.LockByID -> %w", err)
		}
		if !prize.HasWinner() {
			return fmt.Errorf("%w: prize %d has no winner", ErrRevokePrize, prize.ID)
		}
		if prize.IsDelivered() {
			return fmt.Errorf("%w: prize %d was already delivered", ErrRevokePrize, prize.ID)
		}

		completed, err := s.draws.LatestByPrizeAndStatus(ctx, prize.ID, domain.DrawCompleted)
		if err != nil {
			if errors.Is(err, repository.ErrDrawNotFound) {
				return fmt.Errorf("%w: prize %d has no completed draw", ErrRevokePrize, prize.ID)
			}

			return fmt.Errorf("s.draws.LatestByPrizeAndStatus -> %w", err)
		}

		previous := prize
		prize.ResetWinner()
		if prize, err = s.prizes.Update(ctx, prize); err != nil {
			return fmt.Errorf("s.prizes.Update -> %w", err)
		}

		completed.Status = domain.DrawRolledOver
		if completed, err = s.draws.Update(ctx, completed); err != nil {
			return fmt.Errorf("s.draws.Update -> %w", err)
		}

		next, err = s.draws.Create(ctx, domain.Draw{
			PrizeID:     prize.ID,
			LotteryName: completed.LotteryName,
			DrawTime:    s.now().Add(domain.RolloverDelay),
			Status:      domain.DrawScheduled,
		})
		if err != nil {
			return fmt.Errorf("s.draws.Create -> %w", err)
		}
		raffleID = prize.RaffleID

		if err = s.audit.Record(ctx, domain.EntityPrize, prize.ID, domain.ActionRevoked, &actor, previous); err != nil {
			return err
		}
		if err = s.audit.Record(ctx, domain.EntityDraw, completed.ID, domain.ActionRevoked, &actor, completed); err != nil {
			return err
		}

		return s.audit.Record(ctx, domain.EntityDraw, next.ID, domain.ActionCreated, &actor, next)
	})
	if err != nil {
		return domain.Draw{}, err
	}

	s.notifier.Publish(domain.RaffleEvent{RaffleID: raffleID, Type: domain.EventPrizeRevoked, Payload: next})

	return next, nil
}

// ForceResetWinner clears a winner that has no completed draw behind it and
// schedules a fresh draw. Winners backed by a completed draw must go
// through RevokePrizeAssignment.
func (s *DrawService) ForceResetWinner(ctx context.Context, prizeID, actor uint) (domain.Draw, error) {
	var next domain.Draw

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		prize, err := s.prizes.LockByID(ctx, prizeID)
		if err != nil {
			return fmt.Errorf("s.prizes.LockByID -> %w", err)
		}
		if !prize.HasWinner() {
			return fmt.Errorf("%w: prize %d has no winner", ErrPrizeState, prize.ID)
		}
		if prize.IsDelivered() {
			return fmt.Errorf("%w: prize %d was already delivered", ErrPrizeState, prize.ID)
		}

		_, err = s.draws.LatestByPrizeAndStatus(ctx, prize.ID, domain.DrawCompleted)
		switch {
		case err == nil:
			return fmt.Errorf("%w: prize %d has a completed draw, revoke it instead", ErrPrizeState, prize.ID)
		case !errors.Is(err, repository.ErrDrawNotFound):
			return fmt.Errorf("s.draws.LatestByPrizeAndStatus -> %w", err)
		}

		previous := prize
		prize.ResetWinner()
		if prize, err = s.prizes.Update(ctx, prize); err != nil {
			return fmt.Errorf("s.prizes.Update -> %w", err)
		}

		next, err = s.draws.Create(ctx, domain.Draw{
			PrizeID:     prize.ID,
			LotteryName: domain.DefaultLotteryName,
			DrawTime:    s.now().Add(domain.RolloverDelay),
			Status:      domain.DrawScheduled,
		})
		if err != nil {
			return fmt.Errorf("s.draws.Create -> %w", err)
		}

		if err = s.audit.Record(ctx, domain.EntityPrize, prize.ID, domain.ActionForceReset, &actor, previous); err != nil {
			return err
		}

		return s.audit.Record(ctx, domain.EntityDraw, next.ID, domain.ActionCreated, &actor, next)
	})
	if err != nil {
		return domain.Draw{}, err
	}

	return next, nil
}

// MarkDelivered closes the prize. Delivered prizes cannot be revoked.
func (s *DrawService) MarkDelivered(ctx context.Context, prizeID, actor uint) (domain.Prize, error) {
	var delivered domain.Prize

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		prize, err := s.prizes.LockByID(ctx, prizeID)
		if err != nil {
			return fmt.Errorf("s.prizes.LockByID -> %w", err)
		}
		if !prize.HasWinner() {
			return fmt.Errorf("%w: prize %d has no winner", ErrPrizeState, prize.ID)
		}
		if prize.IsDelivered() {
			return fmt.Errorf("%w: prize %d was already delivered", ErrPrizeState, prize.ID)
		}

		now := s.now()
		prize.DeliveredAt = &now
		if delivered, err = s.prizes.Update(ctx, prize); err != nil {
			return fmt.Errorf("s.prizes.Update -> %w", err)
		}

		return s.audit.Record(ctx, domain.EntityPrize, delivered.ID, domain.ActionDelivered, &actor, delivered)
	})
	if err != nil {
		return domain.Prize{}, err
	}

	return delivered, nil
}

// DeleteDraw removes a draw. Deleting the completed draw that produced the
// current winner also clears the winner, unless the prize was delivered.
func (s *DrawService) DeleteDraw(ctx context.Context, drawID, actor uint) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		draw, err := s.draws.LockByID(ctx, drawID)
		if err != nil {
			return fmt.Errorf("s.draws.LockByID -> %w", err)
		}

		if draw.Status == domain.DrawCompleted && draw.WinningNumber != nil {
			prize, err := s.prizes.LockByID(ctx, draw.PrizeID)
			if err != nil {
				return fmt.Errorf("s.prizes.LockByID -> %w", err)
			}

			if prize.WinnerTicketNumber != nil && *prize.WinnerTicketNumber == *draw.WinningNumber {
				if prize.IsDelivered() {
					return fmt.Errorf("%w: prize %d was already delivered", ErrPrizeState, prize.ID)
				}

				previous := prize
				prize.ResetWinner()
				if _, err = s.prizes.Update(ctx, prize); err != nil {
					return fmt.Errorf("s.prizes.Update -> %w", err)
				}
				if err = s.audit.Record(ctx, domain.EntityPrize, prize.ID, domain.ActionRevoked, &actor, previous); err != nil {
					return err
				}
			}
		}

		if err = s.draws.Delete(ctx, draw.ID); err != nil {
			return fmt.Errorf("s.draws.Delete -> %w", err)
		}

		return s.audit.Record(ctx, domain.EntityDraw, draw.ID, domain.ActionDeleted, &actor, draw)
	})
}
