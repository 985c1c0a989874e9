package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
)

const admin uint = 1

func ticketCount(t *testing.T, f *fixture, participationID uint) int64 {
	t.Helper()

	n, err := fakeTickets{f.db}.CountByParticipation(context.Background(), participationID)
	require.NoError(t, err)

	return n
}

func heldNumbers(t *testing.T, f *fixture, participationID uint) []int {
	t.Helper()

	tickets, err := fakeTickets{f.db}.ListByParticipation(context.Background(), participationID)
	require.NoError(t, err)

	return numbersOf(tickets)
}

func TestPaymentService_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	raffle := f.addRaffle(10, 1)
	f.addRate(f.now, "36.50")
	participation := f.participate(raffle.ID, 2, "ana@example.com")

	payment, err := f.payments.Create(ctx, CreatePaymentInput{
		ParticipationID:    participation.ID,
		PaymentMethodID:    vefMethodID,
		PaymentDate:        f.now,
		TransactionDetails: map[string]string{domain.DetailReference: "001122"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, payment.Status)
	assert.Equal(t, "365.00", payment.AmountToPay.StringFixed(2))
	require.NotNil(t, payment.ExchangeRateApplied)
	assert.Equal(t, "36.50", payment.ExchangeRateApplied.StringFixed(2))
	assert.Equal(t, "5.00", payment.TicketPriceAtCreation.StringFixed(2))
	assert.Equal(t, 2, payment.TicketCountAtCreation)
	assert.NotEmpty(t, payment.PaymentHash)
	assert.Zero(t, ticketCount(t, f, participation.ID))
}

func TestPaymentService_Create_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("second payment for a participation", func(t *testing.T) {
		f := newFixture()
		raffle := f.addRaffle(10, 1)
		participation := f.participate(raffle.ID, 1, "ana@example.com")
		f.pay(participation.ID, "REF-1")

		_, err := f.payments.Create(ctx, CreatePaymentInput{
			ParticipationID: participation.ID,
			PaymentMethodID: usdMethodID,
			PaymentDate:     f.now,
			TransactionDetails: map[string]string{
				domain.DetailReference: "REF-2",
				domain.DetailEmail:     "payer@example.com",
			},
		})
		assert.ErrorIs(t, err, ErrPaymentAlreadyExists)
	})

	t.Run("same transfer reported twice", func(t *testing.T) {
		f := newFixture()
		raffle := f.addRaffle(10, 1)
		first := f.participate(raffle.ID, 1, "ana@example.com")
		second := f.participate(raffle.ID, 1, "luis@example.com")
		f.pay(first.ID, "REF-1")

		_, err := f.payments.Create(ctx, CreatePaymentInput{
			ParticipationID: second.ID,
			PaymentMethodID: usdMethodID,
			PaymentDate:     f.now,
			TransactionDetails: map[string]string{
				domain.DetailReference: "ref-1",
				domain.DetailEmail:     "other@example.com",
			},
		})
		assert.ErrorIs(t, err, ErrDuplicatePayment)
	})

	t.Run("method not offered", func(t *testing.T) {
		f := newFixture()
		raffle := f.addRaffle(10, 1)
		participation := f.participate(raffle.ID, 1, "ana@example.com")

		_, err := f.payments.Create(ctx, CreatePaymentInput{
			ParticipationID:    participation.ID,
			PaymentMethodID:    12345,
			PaymentDate:        f.now,
			TransactionDetails: map[string]string{domain.DetailReference: "x"},
		})
		assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
	})

	t.Run("missing transaction details", func(t *testing.T) {
		f := newFixture()
		raffle := f.addRaffle(10, 1)
		participation := f.participate(raffle.ID, 1, "ana@example.com")

		_, err := f.payments.Create(ctx, CreatePaymentInput{
			ParticipationID:    participation.ID,
			PaymentMethodID:    usdMethodID,
			PaymentDate:        f.now,
			TransactionDetails: map[string]string{domain.DetailReference: "REF-1"},
		})
		assert.ErrorIs(t, err, ErrInvalidTransactionDetails)
	})

	t.Run("no exchange rate", func(t *testing.T) {
		f := newFixture()
		raffle := f.addRaffle(10, 1)
		participation := f.participate(raffle.ID, 1, "ana@example.com")

		_, err := f.payments.Create(ctx, CreatePaymentInput{
			ParticipationID:    participation.ID,
			PaymentMethodID:    vefMethodID,
			PaymentDate:        f.now,
			TransactionDetails: map[string]string{domain.DetailReference: "REF-1"},
		})
		assert.ErrorIs(t, err, ErrExchangeRateUnavailable)
	})
}

func TestPaymentService_Approve(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	raffle := f.addRaffle(10, 1)
	participation := f.participate(raffle.ID, 3, "ana@example.com")
	payment := f.pay(participation.ID, "REF-1")

	approved, err := f.payments.Approve(ctx, payment.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentApproved, approved.Status)
	require.NotNil(t, approved.VerifiedBy)
	assert.Equal(t, admin, *approved.VerifiedBy)
	assert.Equal(t, f.now, *approved.VerifiedAt)
	assert.EqualValues(t, 3, ticketCount(t, f, participation.ID))
	before := heldNumbers(t, f, participation.ID)

	_, err = f.payments.Approve(ctx, payment.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, before, heldNumbers(t, f, participation.ID))

	assert.Equal(t,
		[]domain.AuditAction{domain.ActionCreated, domain.ActionApproved, domain.ActionApproved},
		f.audit.actions(domain.EntityPayment, payment.ID),
	)
	assert.Contains(t, f.notifier.types(), domain.EventStatsChanged)
}

func TestPaymentService_RevertApproved(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	raffle := f.addRaffle(10, 1)
	participation := f.participate(raffle.ID, 3, "ana@example.com")
	payment := f.pay(participation.ID, "REF-1")

	_, err := f.payments.Approve(ctx, payment.ID, admin)
	require.NoError(t, err)

	revoked, err := f.payments.RevertApproved(ctx, payment.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, 3, revoked)
	assert.Zero(t, ticketCount(t, f, participation.ID))

	stored, err := fakePayments{f.db}.FindByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentApproved, stored.Status)

	assert.Equal(t,
		[]domain.AuditAction{domain.ActionCreated, domain.ActionApproved, domain.ActionReverted},
		f.audit.actions(domain.EntityPayment, payment.ID),
	)

	revoked, err = f.payments.RevertApproved(ctx, payment.ID, admin)
	require.NoError(t, err)
	assert.Zero(t, revoked)

	_, err = f.payments.RevertApproved(ctx, 12345, admin)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestPaymentService_ChangeStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("approved back to pending takes the tickets", func(t *testing.T) {
		f := newFixture()
		raffle := f.addRaffle(10, 1)
		participation := f.participate(raffle.ID, 2, "ana@example.com")
		payment := f.pay(participation.ID, "REF-1")

		_, err := f.payments.ChangeStatus(ctx, payment.ID, domain.PaymentApproved, admin, "")
		require.NoError(t, err)
		assert.EqualValues(t, 2, ticketCount(t, f, participation.ID))

		pending, err := f.payments.ChangeStatus(ctx, payment.ID, domain.PaymentPending, admin, "double check")
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPending, pending.Status)
		assert.Equal(t, "double check", pending.VerificationNotes)
		assert.Zero(t, ticketCount(t, f, participation.ID))
		assert.Equal(t,
			[]domain.AuditAction{domain.ActionCreated, domain.ActionApproved, domain.ActionReverted, domain.ActionUpdated},
			f.audit.actions(domain.EntityPayment, payment.ID),
		)
	})

	t.Run("approved to rejected takes the tickets", func(t *testing.T) {
		f := newFixture()
		raffle := f.addRaffle(10, 1)
		participation := f.participate(raffle.ID, 2, "ana@example.com")
		payment := f.pay(participation.ID, "REF-1")

		_, err := f.payments.Approve(ctx, payment.ID, admin)
		require.NoError(t, err)

		rejected, err := f.payments.Reject(ctx, payment.ID, admin, "chargeback")
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentRejected, rejected.Status)
		assert.Zero(t, ticketCount(t, f, participation.ID))
		assert.Equal(t,
			[]domain.AuditAction{domain.ActionCreated, domain.ActionApproved, domain.ActionReverted, domain.ActionRejected},
			f.audit.actions(domain.EntityPayment, payment.ID),
		)
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		f := newFixture()
		raffle := f.addRaffle(10, 1)
		participation := f.participate(raffle.ID, 1, "ana@example.com")
		payment := f.pay(participation.ID, "REF-1")

		_, err := f.payments.Reject(ctx, payment.ID, admin, "")
		require.NoError(t, err)

		for _, next := range []domain.PaymentStatus{domain.PaymentApproved, domain.PaymentPending} {
			_, err = f.payments.ChangeStatus(ctx, payment.ID, next, admin, "")
			assert.ErrorIs(t, err, ErrInvalidStatusTransition)
		}

		_, err = f.payments.Approve(ctx, payment.ID, admin)
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
		assert.Zero(t, ticketCount(t, f, participation.ID))
	})

	t.Run("same status only updates notes", func(t *testing.T) {
		f := newFixture()
		raffle := f.addRaffle(10, 1)
		participation := f.participate(raffle.ID, 1, "ana@example.com")
		payment := f.pay(participation.ID, "REF-1")

		updated, err := f.payments.ChangeStatus(ctx, payment.ID, domain.PaymentPending, admin, "waiting on bank")
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPending, updated.Status)
		assert.Equal(t, "waiting on bank", updated.VerificationNotes)
		assert.Nil(t, updated.VerifiedBy)
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture()

		_, err := f.payments.ChangeStatus(ctx, 1, domain.PaymentStatus("PAID"), admin, "")
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})

	t.Run("approval rolls back when numbers run out", func(t *testing.T) {
		f := newFixture()
		raffle := f.addRaffle(3, 1)
		participation := f.participate(raffle.ID, 3, "ana@example.com")
		payment := f.pay(participation.ID, "REF-1")

		f.db.mu.Lock()
		id := f.db.id()
		f.db.tickets[id] = domain.Ticket{ID: id, RaffleID: raffle.ID, ParticipationID: 999, Number: 1}
		f.db.mu.Unlock()

		_, err := f.payments.ChangeStatus(ctx, payment.ID, domain.PaymentApproved, admin, "")
		assert.ErrorIs(t, err, ErrInsufficientTickets)

		stored, err := fakePayments{f.db}.FindByID(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPending, stored.Status)
	})
}

func TestPaymentService_SafeDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	raffle := f.addRaffle(10, 1)
	participation := f.participate(raffle.ID, 2, "ana@example.com")
	payment := f.pay(participation.ID, "REF-1")

	_, err := f.payments.Approve(ctx, payment.ID, admin)
	require.NoError(t, err)

	require.NoError(t, f.payments.SafeDelete(ctx, payment.ID, admin))
	assert.Zero(t, ticketCount(t, f, participation.ID))
	assert.Equal(t,
		[]domain.AuditAction{domain.ActionCreated, domain.ActionApproved, domain.ActionReverted, domain.ActionDeleted},
		f.audit.actions(domain.EntityPayment, payment.ID),
	)

	_, err = fakePayments{f.db}.FindByID(ctx, payment.ID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	assert.ErrorIs(t, f.payments.SafeDelete(ctx, payment.ID, admin), ErrPaymentNotFound)
}

func TestPaymentService_Bulk(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	raffle := f.addRaffle(10, 1)
	first := f.pay(f.participate(raffle.ID, 1, "a@example.com").ID, "REF-1")
	second := f.pay(f.participate(raffle.ID, 1, "b@example.com").ID, "REF-2")
	rejected := f.pay(f.participate(raffle.ID, 1, "c@example.com").ID, "REF-3")

	_, err := f.payments.Reject(ctx, rejected.ID, admin, "")
	require.NoError(t, err)

	result, err := f.payments.Bulk(ctx, BulkApprove, []uint{first.ID, rejected.ID, 4040, second.ID}, admin)
	require.NoError(t, err)
	assert.Equal(t, []uint{first.ID, second.ID}, result.Succeeded)
	assert.Len(t, result.Failed, 2)
	assert.Contains(t, result.Failed, rejected.ID)
	assert.Contains(t, result.Failed, uint(4040))

	result, err = f.payments.Bulk(ctx, BulkDelete, []uint{first.ID, second.ID}, admin)
	require.NoError(t, err)
	assert.Len(t, result.Succeeded, 2)
	assert.Empty(t, result.Failed)

	_, err = f.payments.Bulk(ctx, BulkAction("archive"), []uint{rejected.ID}, admin)
	assert.Error(t, err)
}

func TestPaymentService_Quote(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	raffle := f.addRaffle(10, 1)
	f.addRate(f.now.AddDate(0, 0, -2), "40")
	participation := f.participate(raffle.ID, 1, "ana@example.com")

	quote, err := f.payments.Quote(ctx, participation.ID, vefMethodID, f.now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.CurrencyVEF, quote.Currency)
	assert.Equal(t, "200.00", quote.Amount.StringFixed(2))

	_, err = f.payments.Quote(ctx, 404, vefMethodID, f.now)
	assert.ErrorIs(t, err, ErrParticipationNotFound)
}
