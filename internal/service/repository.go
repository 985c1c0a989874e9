package service

import (
	"context"
	"time"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
)

// Transactor runs fn in a database transaction. Calls made with the
// context passed to fn join it; nested calls join the outer transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type RaffleRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Raffle, error)
	LockByID(ctx context.Context, id uint) (domain.Raffle, error)
	FindBySlug(ctx context.Context, slug string) (domain.Raffle, error)
	ListActive(ctx context.Context) ([]domain.Raffle, error)
	ReservedTicketCount(ctx context.Context, raffleID uint) (int64, error)
}

type ParticipationRepository interface {
	Create(ctx context.Context, participation domain.Participation) (domain.Participation, error)
	FindByID(ctx context.Context, id uint) (domain.Participation, error)
	LockByID(ctx context.Context, id uint) (domain.Participation, error)
	Delete(ctx context.Context, id uint) error
	FindByContactHashes(ctx context.Context, raffleID uint, idHash, phoneHash, emailHash string) ([]domain.Participation, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment domain.Payment) (domain.Payment, error)
	FindByID(ctx context.Context, id uint) (domain.Payment, error)
	LockByID(ctx context.Context, id uint) (domain.Payment, error)
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	ExistsForParticipation(ctx context.Context, participationID uint) (bool, error)
	Update(ctx context.Context, payment domain.Payment) (domain.Payment, error)
	Delete(ctx context.Context, id uint) error
}

type PaymentMethodRepository interface {
	FindByID(ctx context.Context, id uint) (domain.PaymentMethod, error)
}

type TicketRepository interface {
	AssignedNumbers(ctx context.Context, raffleID uint) ([]int, error)
	CountByParticipation(ctx context.Context, participationID uint) (int64, error)
	CreateBatch(ctx context.Context, tickets []domain.Ticket) ([]domain.Ticket, error)
	DeleteByParticipation(ctx context.Context, participationID uint) (int64, error)
	FindByNumber(ctx context.Context, raffleID uint, number int) (domain.Ticket, error)
	ListByParticipation(ctx context.Context, participationID uint) ([]domain.Ticket, error)
}

type PrizeRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Prize, error)
	LockByID(ctx context.Context, id uint) (domain.Prize, error)
	Update(ctx context.Context, prize domain.Prize) (domain.Prize, error)
}

type DrawRepository interface {
	Create(ctx context.Context, draw domain.Draw) (domain.Draw, error)
	FindByID(ctx context.Context, id uint) (domain.Draw, error)
	LockByID(ctx context.Context, id uint) (domain.Draw, error)
	Update(ctx context.Context, draw domain.Draw) (domain.Draw, error)
	Delete(ctx context.Context, id uint) error
	LatestByPrizeAndStatus(ctx context.Context, prizeID uint, status domain.DrawStatus) (domain.Draw, error)
}

type ExchangeRateRepository interface {
	LatestOnOrBefore(ctx context.Context, date time.Time) (domain.ExchangeRate, error)
	ExistsAfter(ctx context.Context, date time.Time) (bool, error)
	GetOrCreate(ctx context.Context, rate domain.ExchangeRate) (domain.ExchangeRate, bool, error)
	Upsert(ctx context.Context, rate domain.ExchangeRate) (domain.ExchangeRate, error)
}

// Auditor appends entity snapshots to the audit log. It must be called with
// the transaction context of the mutation it records.
type Auditor interface {
	Record(ctx context.Context, entityType domain.EntityType, entityID uint, action domain.AuditAction, actorID *uint, snapshot any) error
}

// Notifier fans raffle events out to live subscribers. It must not block.
type Notifier interface {
	Publish(event domain.RaffleEvent)
}

// Notifiers publishes every event to each of its members in order.
type Notifiers []Notifier

func (n Notifiers) Publish(event domain.RaffleEvent) {
	for _, notifier := range n {
		notifier.Publish(event)
	}
}

type nopNotifier struct{}

func (nopNotifier) Publish(domain.RaffleEvent) {}
