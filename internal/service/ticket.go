package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/metrics"
)

// Random picks an index in [0, n).
type Random interface {
	Intn(n int) int
}

type globalRandom struct{}

func (globalRandom) Intn(n int) int { return rand.Intn(n) }

// TicketService turns a participation's reservation into concrete ticket
// numbers and takes them back when the payment approval is reverted.
type TicketService struct {
	tx             Transactor
	raffles        RaffleRepository
	participations ParticipationRepository
	tickets        TicketRepository
	audit          Auditor
	random         Random
	now            func() time.Time
}

func NewTicketService(tx Transactor, raffles RaffleRepository, participations ParticipationRepository, tickets TicketRepository, audit Auditor) *TicketService {
	return &TicketService{
		tx:             tx,
		raffles:        raffles,
		participations: participations,
		tickets:        tickets,
		audit:          audit,
		random:         globalRandom{},
		now:            time.Now,
	}
}

// AssignTickets draws participation.TicketCount distinct free numbers for
// the participation. The raffle row stays locked until the surrounding
// transaction ends, so concurrent allocations in one raffle are serialized.
func (s *TicketService) AssignTickets(ctx context.Context, participation domain.Participation) ([]domain.Ticket, error) {
	var created []domain.Ticket

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		raffle, err := s.raffles.LockByID(ctx, participation.RaffleID)
		if err != nil {
			return fmt.Errorf("s.raffles.LockByID -> %w", err)
		}

		count, err := s.tickets.CountByParticipation(ctx, participation.ID)
		if err != nil {
			return fmt.Errorf("s.tickets.CountByParticipation -> %w", err)
		}
		if count > 0 {
			return ErrAlreadyAssigned
		}

		taken, err := s.tickets.AssignedNumbers(ctx, raffle.ID)
		if err != nil {
			return fmt.Errorf("s.tickets.AssignedNumbers -> %w", err)
		}

		numbers, err := pickNumbers(s.random, raffle.TotalTickets, taken, participation.TicketCount)
		if err != nil {
			return err
		}

		assignedAt := s.now()
		batch := make([]domain.Ticket, 0, len(numbers))
		for _, n := range numbers {
			batch = append(batch, domain.Ticket{
				RaffleID:        raffle.ID,
				ParticipationID: participation.ID,
				Number:          n,
				AssignedAt:      assignedAt,
			})
		}

		created, err = s.tickets.CreateBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("s.tickets.CreateBatch -> %w", err)
		}

		return s.audit.Record(ctx, domain.EntityTicketBatch, participation.ID, domain.ActionAssigned, nil, numbers)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTicketsAssigned(len(created))

	return created, nil
}

// RevokedBatch is the audit snapshot of a revocation.
type RevokedBatch struct {
	Revoked int64 `json:"revoked"`
	Numbers []int `json:"numbers"`
}

// RevokeTickets deletes every ticket of the participation and returns how
// many were removed. A participation without tickets yields 0.
func (s *TicketService) RevokeTickets(ctx context.Context, participationID uint) (int, error) {
	var revoked int64

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.participations.LockByID(ctx, participationID); err != nil {
			return fmt.Errorf("s.participations.LockByID -> %w", err)
		}

		held, err := s.tickets.ListByParticipation(ctx, participationID)
		if err != nil {
			return fmt.Errorf("s.tickets.ListByParticipation -> %w", err)
		}

		revoked, err = s.tickets.DeleteByParticipation(ctx, participationID)
		if err != nil {
			return fmt.Errorf("s.tickets.DeleteByParticipation -> %w", err)
		}
		if revoked == 0 {
			return nil
		}

		numbers := make([]int, 0, len(held))
		for _, t := range held {
			numbers = append(numbers, t.Number)
		}

		return s.audit.Record(ctx, domain.EntityTicketBatch, participationID, domain.ActionRevoked, nil, RevokedBatch{
			Revoked: revoked,
			Numbers: numbers,
		})
	})
	if err != nil {
		return 0, err
	}

	metrics.RecordTicketsRevoked(int(revoked))

	return int(revoked), nil
}

// pickNumbers samples n distinct numbers from [0, total) minus taken with a
// partial Fisher-Yates shuffle. The result is sorted.
func pickNumbers(random Random, total int, taken []int, n int) ([]int, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: requested %d", ErrInsufficientTickets, n)
	}

	if total < 0 {
		total = 0
	}

	used := make([]bool, total)
	for _, t := range taken {
		if t >= 0 && t < total {
			used[t] = true
		}
	}

	pool := make([]int, 0, total)
	for i := 0; i < total; i++ {
		if !used[i] {
			pool = append(pool, i)
		}
	}

	if len(pool) < n {
		return nil, fmt.Errorf("%w: requested %d, free %d", ErrInsufficientTickets, n, len(pool))
	}

	for i := 0; i < n; i++ {
		j := i + random.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	picked := append([]int(nil), pool[:n]...)
	sort.Ints(picked)

	return picked, nil
}
