package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
)

type seededRandom struct{ r *rand.Rand }

func (s seededRandom) Intn(n int) int { return s.r.Intn(n) }

func TestPickNumbers(t *testing.T) {
	random := seededRandom{rand.New(rand.NewSource(42))}

	t.Run("distinct and free", func(t *testing.T) {
		taken := []int{0, 2, 4, 6, 8}

		for i := 0; i < 50; i++ {
			picked, err := pickNumbers(random, 10, taken, 5)
			require.NoError(t, err)
			assert.ElementsMatch(t, []int{1, 3, 5, 7, 9}, picked)
		}
	})

	t.Run("sorted within range", func(t *testing.T) {
		picked, err := pickNumbers(random, 1000, nil, 20)
		require.NoError(t, err)
		require.Len(t, picked, 20)

		seen := map[int]bool{}
		for i, n := range picked {
			assert.GreaterOrEqual(t, n, 0)
			assert.Less(t, n, 1000)
			assert.False(t, seen[n], "duplicate %d", n)
			seen[n] = true
			if i > 0 {
				assert.Less(t, picked[i-1], n)
			}
		}
	})

	t.Run("exhausted", func(t *testing.T) {
		_, err := pickNumbers(random, 3, []int{0, 1}, 2)
		assert.ErrorIs(t, err, ErrInsufficientTickets)
	})

	t.Run("non positive request", func(t *testing.T) {
		_, err := pickNumbers(random, 3, nil, 0)
		assert.ErrorIs(t, err, ErrInsufficientTickets)
	})
}

func TestTicketService_AssignAndRevoke(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	raffle := f.addRaffle(10, 1)
	first := f.participate(raffle.ID, 3, "ana@example.com")
	second := f.participate(raffle.ID, 2, "luis@example.com")

	tickets, err := f.tickets.AssignTickets(ctx, first)
	require.NoError(t, err)
	require.Len(t, tickets, 3)
	assert.Equal(t, []int{0, 1, 2}, numbersOf(tickets))

	_, err = f.tickets.AssignTickets(ctx, first)
	assert.ErrorIs(t, err, ErrAlreadyAssigned)

	tickets, err = f.tickets.AssignTickets(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, numbersOf(tickets))

	revoked, err := f.tickets.RevokeTickets(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, revoked)

	record, ok := f.audit.last(domain.EntityTicketBatch, first.ID, domain.ActionRevoked)
	require.True(t, ok)
	assert.Equal(t, RevokedBatch{Revoked: 3, Numbers: []int{0, 1, 2}}, record.snapshot)

	revoked, err = f.tickets.RevokeTickets(ctx, first.ID)
	require.NoError(t, err)
	assert.Zero(t, revoked)

	tickets, err = f.tickets.AssignTickets(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, numbersOf(tickets))

	assert.Equal(t,
		[]domain.AuditAction{domain.ActionAssigned, domain.ActionRevoked, domain.ActionAssigned},
		f.audit.actions(domain.EntityTicketBatch, first.ID),
	)
}

func TestTicketService_AssignTickets_RollsBackWhenExhausted(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	raffle := f.addRaffle(4, 1)
	participation := f.participate(raffle.ID, 3, "ana@example.com")

	f.db.mu.Lock()
	for _, n := range []int{0, 1} {
		id := f.db.id()
		f.db.tickets[id] = domain.Ticket{ID: id, RaffleID: raffle.ID, ParticipationID: 999, Number: n}
	}
	f.db.mu.Unlock()

	_, err := f.tickets.AssignTickets(ctx, participation)
	assert.ErrorIs(t, err, ErrInsufficientTickets)

	count, err := fakeTickets{f.db}.CountByParticipation(ctx, participation.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, f.audit.actions(domain.EntityTicketBatch, participation.ID))
}

func numbersOf(tickets []domain.Ticket) []int {
	out := make([]int, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.Number)
	}

	return out
}
