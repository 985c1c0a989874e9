package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
)

func newParticipation(raffleID uint, count int) domain.Participation {
	return domain.Participation{
		RaffleID:             raffleID,
		FullName:             "Ana Pérez",
		IdentificationNumber: "V-12345678",
		Phone:                "(0414) 123-4567",
		Email:                "Ana@Example.com",
		TicketCount:          count,
	}
}

func TestParticipationService_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	raffle := f.addRaffle(10, 2)

	created, err := f.participations.Create(ctx, newParticipation(raffle.ID, 4))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, domain.HashContact("ana@example.com"), created.EmailHash)
	assert.Equal(t, domain.HashContact("V-12345678"), created.IdentificationNumberHash)

	require.Len(t, f.scheduler.reaps, 1)
	assert.Equal(t, created.ID, f.scheduler.reaps[0].participationID)
	assert.Equal(t, f.now.Add(5*time.Minute), f.scheduler.reaps[0].due)

	assert.Equal(t, []domain.AuditAction{domain.ActionCreated}, f.audit.actions(domain.EntityParticipation, created.ID))
	assert.Equal(t, []domain.RaffleEventType{domain.EventStatsChanged}, f.notifier.types())

	reserved, err := fakeRaffles{f.db}.ReservedTicketCount(ctx, raffle.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, reserved)
}

func TestParticipationService_Create_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("below minimum purchase", func(t *testing.T) {
		f := newFixture()
		raffle := f.addRaffle(10, 3)

		_, err := f.participations.Create(ctx, newParticipation(raffle.ID, 2))
		assert.ErrorIs(t, err, ErrBelowMinimumPurchase)
		assert.Empty(t, f.scheduler.reaps)
	})

	t.Run("not enough tickets", func(t *testing.T) {
		f := newFixture()
		raffle := f.addRaffle(10, 1)
		f.participate(raffle.ID, 8, "a@example.com")

		_, err := f.participations.Create(ctx, newParticipation(raffle.ID, 3))
		assert.ErrorIs(t, err, ErrNotEnoughTickets)

		_, err = f.participations.Create(ctx, newParticipation(raffle.ID, 2))
		assert.NoError(t, err)
	})

	t.Run("raffle closed", func(t *testing.T) {
		f := newFixture()
		raffle := f.addRaffle(10, 1)
		raffle.Status = domain.RaffleProcessingWinners
		f.db.raffles[raffle.ID] = raffle

		_, err := f.participations.Create(ctx, newParticipation(raffle.ID, 1))
		assert.ErrorIs(t, err, ErrRaffleNotAvailable)
	})

	t.Run("unknown raffle", func(t *testing.T) {
		f := newFixture()

		_, err := f.participations.Create(ctx, newParticipation(404, 1))
		assert.ErrorIs(t, err, ErrRaffleNotFound)
	})
}

func TestParticipationService_Create_RejectedPaymentFreesTickets(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	raffle := f.addRaffle(5, 1)
	first := f.participate(raffle.ID, 5, "a@example.com")
	payment := f.pay(first.ID, "REF-1")

	_, err := f.participations.Create(ctx, newParticipation(raffle.ID, 1))
	require.ErrorIs(t, err, ErrNotEnoughTickets)

	_, err = f.payments.Reject(ctx, payment.ID, 1, "wrong amount")
	require.NoError(t, err)

	_, err = f.participations.Create(ctx, newParticipation(raffle.ID, 5))
	assert.NoError(t, err)
}

func TestParticipationService_Create_ScheduleFailureKeepsParticipation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	raffle := f.addRaffle(10, 1)
	f.scheduler.err = errors.New("redis down")

	created, err := f.participations.Create(ctx, newParticipation(raffle.ID, 1))
	require.NoError(t, err)

	_, err = fakeParticipations{f.db}.FindByID(ctx, created.ID)
	assert.NoError(t, err)
}

func TestParticipationService_Lookup(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	raffle := f.addRaffle(10, 1)
	older := f.participate(raffle.ID, 1, "ana@example.com")
	newer := f.participate(raffle.ID, 2, "ana@example.com")
	f.participate(raffle.ID, 1, "other@example.com")

	found, err := f.participations.Lookup(ctx, raffle.ID, " v-12345678 ", "(0414) 123-4567", "ANA@example.com")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, newer.ID, found[0].ID)
	assert.Equal(t, older.ID, found[1].ID)

	found, err = f.participations.Lookup(ctx, raffle.ID, "V-12345678", "(0414) 123-4567", "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, found)
}
