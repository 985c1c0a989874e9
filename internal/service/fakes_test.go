package service

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/domain"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/ratesource"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/repository"
)

// memDB is a tiny in-memory stand-in for postgres shared by the fake
// repositories below.
type memDB struct {
	mu             sync.Mutex
	txMu           sync.Mutex
	nextID         uint
	raffles        map[uint]domain.Raffle
	participations map[uint]domain.Participation
	payments       map[uint]domain.Payment
	methods        map[uint]domain.PaymentMethod
	tickets        map[uint]domain.Ticket
	prizes         map[uint]domain.Prize
	draws          map[uint]domain.Draw
	rates          map[uint]domain.ExchangeRate
}

func newMemDB() *memDB {
	return &memDB{
		raffles:        map[uint]domain.Raffle{},
		participations: map[uint]domain.Participation{},
		payments:       map[uint]domain.Payment{},
		methods:        map[uint]domain.PaymentMethod{},
		tickets:        map[uint]domain.Ticket{},
		prizes:         map[uint]domain.Prize{},
		draws:          map[uint]domain.Draw{},
		rates:          map[uint]domain.ExchangeRate{},
	}
}

func (db *memDB) id() uint {
	db.nextID++
	return db.nextID
}

type memSnapshot struct {
	nextID         uint
	raffles        map[uint]domain.Raffle
	participations map[uint]domain.Participation
	payments       map[uint]domain.Payment
	methods        map[uint]domain.PaymentMethod
	tickets        map[uint]domain.Ticket
	prizes         map[uint]domain.Prize
	draws          map[uint]domain.Draw
	rates          map[uint]domain.ExchangeRate
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()

	return memSnapshot{
		nextID:         db.nextID,
		raffles:        maps.Clone(db.raffles),
		participations: maps.Clone(db.participations),
		payments:       maps.Clone(db.payments),
		methods:        maps.Clone(db.methods),
		tickets:        maps.Clone(db.tickets),
		prizes:         maps.Clone(db.prizes),
		draws:          maps.Clone(db.draws),
		rates:          maps.Clone(db.rates),
	}
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.nextID = s.nextID
	db.raffles = s.raffles
	db.participations = s.participations
	db.payments = s.payments
	db.methods = s.methods
	db.tickets = s.tickets
	db.prizes = s.prizes
	db.draws = s.draws
	db.rates = s.rates
}

type txKey struct{}

// fakeTransactor serializes transactions and rolls the memDB back when fn
// fails. Nested calls join the outer transaction.
type fakeTransactor struct {
	db *memDB
}

func (t fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	before := t.db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.db.restore(before)
		return err
	}

	return nil
}

type fakeRaffles struct{ db *memDB }

func (r fakeRaffles) Create(_ context.Context, raffle domain.Raffle) (domain.Raffle, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.raffles {
		if existing.Slug == raffle.Slug {
			return domain.Raffle{}, repository.ErrSlugTaken
		}
	}
	raffle.ID = r.db.id()
	r.db.raffles[raffle.ID] = raffle

	return raffle, nil
}

func (r fakeRaffles) FindByID(_ context.Context, id uint) (domain.Raffle, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	raffle, ok := r.db.raffles[id]
	if !ok {
		return domain.Raffle{}, repository.ErrRaffleNotFound
	}

	return raffle, nil
}

func (r fakeRaffles) LockByID(ctx context.Context, id uint) (domain.Raffle, error) {
	return r.FindByID(ctx, id)
}

func (r fakeRaffles) FindBySlug(_ context.Context, slug string) (domain.Raffle, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, raffle := range r.db.raffles {
		if raffle.Slug == slug && raffle.IsActive && raffle.Status != domain.RaffleCancelled {
			return raffle, nil
		}
	}

	return domain.Raffle{}, repository.ErrRaffleNotFound
}

func (r fakeRaffles) ListActive(_ context.Context) ([]domain.Raffle, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.Raffle
	for _, raffle := range r.db.raffles {
		if raffle.IsActive {
			out = append(out, raffle)
		}
	}

	return out, nil
}

func (r fakeRaffles) ReservedTicketCount(_ context.Context, raffleID uint) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var reserved int64
	for _, p := range r.db.participations {
		if p.RaffleID != raffleID {
			continue
		}
		if payment, ok := r.db.paymentOf(p.ID); ok && payment.Status == domain.PaymentRejected {
			continue
		}
		reserved += int64(p.TicketCount)
	}

	return reserved, nil
}

// paymentOf must be called with mu held.
func (db *memDB) paymentOf(participationID uint) (domain.Payment, bool) {
	for _, payment := range db.payments {
		if payment.ParticipationID == participationID {
			return payment, true
		}
	}

	return domain.Payment{}, false
}

type fakeParticipations struct{ db *memDB }

func (r fakeParticipations) Create(_ context.Context, p domain.Participation) (domain.Participation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p.ID = r.db.id()
	p.CreatedAt = time.Now().Add(time.Duration(p.ID) * time.Millisecond)
	p.UpdatedAt = p.CreatedAt
	r.db.participations[p.ID] = p

	return p, nil
}

func (r fakeParticipations) FindByID(_ context.Context, id uint) (domain.Participation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.participations[id]
	if !ok {
		return domain.Participation{}, repository.ErrParticipationNotFound
	}

	return r.db.withRelations(p), nil
}

// withRelations must be called with mu held.
func (db *memDB) withRelations(p domain.Participation) domain.Participation {
	p.Tickets = nil
	for _, t := range db.tickets {
		if t.ParticipationID == p.ID {
			p.Tickets = append(p.Tickets, t)
		}
	}
	sort.Slice(p.Tickets, func(i, j int) bool { return p.Tickets[i].Number < p.Tickets[j].Number })

	p.Payment = nil
	if payment, ok := db.paymentOf(p.ID); ok {
		p.Payment = &payment
	}

	return p
}

func (r fakeParticipations) LockByID(ctx context.Context, id uint) (domain.Participation, error) {
	return r.FindByID(ctx, id)
}

func (r fakeParticipations) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.participations[id]; !ok {
		return repository.ErrParticipationNotFound
	}
	delete(r.db.participations, id)
	for tid, t := range r.db.tickets {
		if t.ParticipationID == id {
			delete(r.db.tickets, tid)
		}
	}
	for pid, payment := range r.db.payments {
		if payment.ParticipationID == id {
			delete(r.db.payments, pid)
		}
	}

	return nil
}

func (r fakeParticipations) FindByContactHashes(_ context.Context, raffleID uint, idHash, phoneHash, emailHash string) ([]domain.Participation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.Participation
	for _, p := range r.db.participations {
		if p.RaffleID == raffleID && p.IdentificationNumberHash == idHash && p.PhoneHash == phoneHash && p.EmailHash == emailHash {
			out = append(out, r.db.withRelations(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	return out, nil
}

type fakePayments struct{ db *memDB }

func (r fakePayments) Create(_ context.Context, payment domain.Payment) (domain.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.payments {
		if existing.PaymentHash == payment.PaymentHash {
			return domain.Payment{}, repository.ErrDuplicatePayment
		}
		if existing.ParticipationID == payment.ParticipationID {
			return domain.Payment{}, repository.ErrPaymentAlreadyExists
		}
	}

	payment.ID = r.db.id()
	payment.CreatedAt = time.Now()
	r.db.payments[payment.ID] = payment

	return payment, nil
}

func (r fakePayments) FindByID(_ context.Context, id uint) (domain.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	payment, ok := r.db.payments[id]
	if !ok {
		return domain.Payment{}, repository.ErrPaymentNotFound
	}

	return payment, nil
}

func (r fakePayments) LockByID(ctx context.Context, id uint) (domain.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r fakePayments) ExistsByHash(_ context.Context, hash string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, payment := range r.db.payments {
		if payment.PaymentHash == hash {
			return true, nil
		}
	}

	return false, nil
}

func (r fakePayments) ExistsForParticipation(_ context.Context, participationID uint) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	_, ok := r.db.paymentOf(participationID)

	return ok, nil
}

func (r fakePayments) Update(_ context.Context, payment domain.Payment) (domain.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.payments[payment.ID]; !ok {
		return domain.Payment{}, repository.ErrPaymentNotFound
	}
	payment.UpdatedAt = time.Now()
	r.db.payments[payment.ID] = payment

	return payment, nil
}

func (r fakePayments) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.payments[id]; !ok {
		return repository.ErrPaymentNotFound
	}
	delete(r.db.payments, id)

	return nil
}

type fakeMethods struct{ db *memDB }

func (r fakeMethods) Create(_ context.Context, method domain.PaymentMethod) (domain.PaymentMethod, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	method.ID = r.db.id()
	r.db.methods[method.ID] = method

	return method, nil
}

func (r fakeMethods) FindByID(_ context.Context, id uint) (domain.PaymentMethod, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	method, ok := r.db.methods[id]
	if !ok {
		return domain.PaymentMethod{}, repository.ErrPaymentMethodNotFound
	}

	return method, nil
}

type fakeBanks map[string]string

func (b fakeBanks) List(context.Context) ([]domain.Bank, error) {
	banks := make([]domain.Bank, 0, len(b))
	for code, name := range b {
		banks = append(banks, domain.Bank{Code: code, Name: name})
	}
	sort.Slice(banks, func(i, j int) bool { return banks[i].Code < banks[j].Code })

	return banks, nil
}

func (b fakeBanks) FindByCode(_ context.Context, code string) (domain.Bank, error) {
	name, ok := b[code]
	if !ok {
		return domain.Bank{}, repository.ErrBankNotFound
	}

	return domain.Bank{Code: code, Name: name}, nil
}

type fakeTickets struct{ db *memDB }

func (r fakeTickets) AssignedNumbers(_ context.Context, raffleID uint) ([]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var numbers []int
	for _, t := range r.db.tickets {
		if t.RaffleID == raffleID {
			numbers = append(numbers, t.Number)
		}
	}

	return numbers, nil
}

func (r fakeTickets) CountByParticipation(_ context.Context, participationID uint) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for _, t := range r.db.tickets {
		if t.ParticipationID == participationID {
			n++
		}
	}

	return n, nil
}

func (r fakeTickets) CreateBatch(_ context.Context, tickets []domain.Ticket) ([]domain.Ticket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, t := range tickets {
		for _, existing := range r.db.tickets {
			if existing.RaffleID == t.RaffleID && existing.Number == t.Number {
				return nil, repository.ErrTicketNumberTaken
			}
		}
	}

	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		t.ID = r.db.id()
		r.db.tickets[t.ID] = t
		out = append(out, t)
	}

	return out, nil
}

func (r fakeTickets) DeleteByParticipation(_ context.Context, participationID uint) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, t := range r.db.tickets {
		if t.ParticipationID == participationID {
			delete(r.db.tickets, id)
			n++
		}
	}

	return n, nil
}

func (r fakeTickets) FindByNumber(_ context.Context, raffleID uint, number int) (domain.Ticket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, t := range r.db.tickets {
		if t.RaffleID == raffleID && t.Number == number {
			return t, nil
		}
	}

	return domain.Ticket{}, repository.ErrTicketNotFound
}

func (r fakeTickets) ListByParticipation(_ context.Context, participationID uint) ([]domain.Ticket, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.Ticket
	for _, t := range r.db.tickets {
		if t.ParticipationID == participationID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })

	return out, nil
}

type fakePrizes struct{ db *memDB }

func (r fakePrizes) FindByID(_ context.Context, id uint) (domain.Prize, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	prize, ok := r.db.prizes[id]
	if !ok {
		return domain.Prize{}, repository.ErrPrizeNotFound
	}

	return prize, nil
}

func (r fakePrizes) LockByID(ctx context.Context, id uint) (domain.Prize, error) {
	return r.FindByID(ctx, id)
}

func (r fakePrizes) Update(_ context.Context, prize domain.Prize) (domain.Prize, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.prizes[prize.ID]; !ok {
		return domain.Prize{}, repository.ErrPrizeNotFound
	}
	r.db.prizes[prize.ID] = prize

	return prize, nil
}

type fakeDraws struct{ db *memDB }

func (r fakeDraws) Create(_ context.Context, draw domain.Draw) (domain.Draw, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	draw.ID = r.db.id()
	r.db.draws[draw.ID] = draw

	return draw, nil
}

func (r fakeDraws) FindByID(_ context.Context, id uint) (domain.Draw, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	draw, ok := r.db.draws[id]
	if !ok {
		return domain.Draw{}, repository.ErrDrawNotFound
	}

	return draw, nil
}

func (r fakeDraws) LockByID(ctx context.Context, id uint) (domain.Draw, error) {
	return r.FindByID(ctx, id)
}

func (r fakeDraws) Update(_ context.Context, draw domain.Draw) (domain.Draw, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.draws[draw.ID]; !ok {
		return domain.Draw{}, repository.ErrDrawNotFound
	}
	r.db.draws[draw.ID] = draw

	return draw, nil
}

func (r fakeDraws) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.draws[id]; !ok {
		return repository.ErrDrawNotFound
	}
	delete(r.db.draws, id)

	return nil
}

func (r fakeDraws) LatestByPrizeAndStatus(_ context.Context, prizeID uint, status domain.DrawStatus) (domain.Draw, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var latest domain.Draw
	found := false
	for _, d := range r.db.draws {
		if d.PrizeID != prizeID || d.Status != status {
			continue
		}
		if !found || d.DrawTime.After(latest.DrawTime) || (d.DrawTime.Equal(latest.DrawTime) && d.ID > latest.ID) {
			latest = d
			found = true
		}
	}
	if !found {
		return domain.Draw{}, repository.ErrDrawNotFound
	}

	return latest, nil
}

func (db *memDB) drawsOf(prizeID uint) []domain.Draw {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.Draw
	for _, d := range db.draws {
		if d.PrizeID == prizeID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

type fakeRates struct{ db *memDB }

func (r fakeRates) LatestOnOrBefore(_ context.Context, date time.Time) (domain.ExchangeRate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	day := dateOf(date)
	var latest domain.ExchangeRate
	found := false
	for _, rate := range r.db.rates {
		if rate.Date.After(day) {
			continue
		}
		if !found || rate.Date.After(latest.Date) {
			latest = rate
			found = true
		}
	}
	if !found {
		return domain.ExchangeRate{}, repository.ErrExchangeRateNotFound
	}

	return latest, nil
}

func (r fakeRates) ExistsAfter(_ context.Context, date time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	day := dateOf(date)
	for _, rate := range r.db.rates {
		if rate.Date.After(day) {
			return true, nil
		}
	}

	return false, nil
}

func (r fakeRates) GetOrCreate(_ context.Context, rate domain.ExchangeRate) (domain.ExchangeRate, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.rates {
		if existing.Date.Equal(dateOf(rate.Date)) {
			return existing, false, nil
		}
	}
	rate.ID = r.db.id()
	rate.Date = dateOf(rate.Date)
	r.db.rates[rate.ID] = rate

	return rate, true, nil
}

func (r fakeRates) Upsert(_ context.Context, rate domain.ExchangeRate) (domain.ExchangeRate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for id, existing := range r.db.rates {
		if existing.Date.Equal(dateOf(rate.Date)) {
			rate.ID = id
			r.db.rates[id] = rate

			return rate, nil
		}
	}
	rate.ID = r.db.id()
	r.db.rates[rate.ID] = rate

	return rate, nil
}

type auditRecord struct {
	entityType domain.EntityType
	entityID   uint
	action     domain.AuditAction
	actorID    *uint
	snapshot   any
}

type fakeAuditor struct {
	mu      sync.Mutex
	records []auditRecord
}

func (a *fakeAuditor) Record(_ context.Context, entityType domain.EntityType, entityID uint, action domain.AuditAction, actorID *uint, snapshot any) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.records = append(a.records, auditRecord{entityType: entityType, entityID: entityID, action: action, actorID: actorID, snapshot: snapshot})

	return nil
}

func (a *fakeAuditor) actions(entityType domain.EntityType, entityID uint) []domain.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []domain.AuditAction
	for _, r := range a.records {
		if r.entityType == entityType && r.entityID == entityID {
			out = append(out, r.action)
		}
	}

	return out
}

func (a *fakeAuditor) last(entityType domain.EntityType, entityID uint, action domain.AuditAction) (auditRecord, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := len(a.records) - 1; i >= 0; i-- {
		r := a.records[i]
		if r.entityType == entityType && r.entityID == entityID && r.action == action {
			return r, true
		}
	}

	return auditRecord{}, false
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []domain.RaffleEvent
}

func (n *fakeNotifier) Publish(event domain.RaffleEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = append(n.events, event)
}

func (n *fakeNotifier) types() []domain.RaffleEventType {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []domain.RaffleEventType
	for _, e := range n.events {
		out = append(out, e.Type)
	}

	return out
}

type scheduledReap struct {
	participationID uint
	due             time.Time
}

type fakeScheduler struct {
	mu    sync.Mutex
	err   error
	reaps []scheduledReap
}

func (s *fakeScheduler) ScheduleReap(_ context.Context, participationID uint, due time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.reaps = append(s.reaps, scheduledReap{participationID: participationID, due: due})

	return nil
}

type fakeRateSource struct {
	calls int
	rates ratesource.Rates
	err   error
}

func (s *fakeRateSource) Fetch(context.Context) (ratesource.Rates, error) {
	s.calls++

	return s.rates, s.err
}

type fakeAttempts struct {
	counts map[string]int
	ttls   map[string]time.Duration
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{counts: map[string]int{}, ttls: map[string]time.Duration{}}
}

func (a *fakeAttempts) Get(_ context.Context, key string) (int, error) {
	return a.counts[key], nil
}

func (a *fakeAttempts) Set(_ context.Context, key string, n int, ttl time.Duration) error {
	a.counts[key] = n
	a.ttls[key] = ttl

	return nil
}

// stepRandom always picks the first remaining index, so allocations are
// predictable.
type stepRandom struct{}

func (stepRandom) Intn(int) int { return 0 }

// fixture wires every service to one memDB.
type fixture struct {
	db             *memDB
	audit          *fakeAuditor
	notifier       *fakeNotifier
	scheduler      *fakeScheduler
	tickets        *TicketService
	participations *ParticipationService
	payments       *PaymentService
	draws          *DrawService
	reaper         *ReaperService
	now            time.Time
}

func newFixture() *fixture {
	db := newMemDB()
	tx := fakeTransactor{db: db}
	f := &fixture{
		db:        db,
		audit:     &fakeAuditor{},
		notifier:  &fakeNotifier{},
		scheduler: &fakeScheduler{},
		now:       time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	f.tickets = NewTicketService(tx, fakeRaffles{db}, fakeParticipations{db}, fakeTickets{db}, f.audit)
	f.tickets.random = stepRandom{}
	f.tickets.now = clock

	f.participations = NewParticipationService(
		tx, fakeRaffles{db}, fakeParticipations{db}, f.audit, f.scheduler, f.notifier, 5*time.Minute,
	)
	f.participations.now = clock

	f.payments = NewPaymentService(
		tx, fakeRaffles{db}, fakeParticipations{db}, fakePayments{db}, fakeMethods{db}, fakeTickets{db},
		f.tickets, NewCurrencyService(fakeRates{db}), f.audit, f.notifier,
	)
	f.payments.now = clock

	f.draws = NewDrawService(
		tx, fakePrizes{db}, fakeDraws{db}, fakeTickets{db}, fakeParticipations{db}, fakeRaffles{db}, f.audit, f.notifier,
	)
	f.draws.now = clock

	f.reaper = NewReaperService(tx, fakeParticipations{db}, fakePayments{db}, f.audit, f.notifier)

	return f
}

const (
	usdMethodID uint = 900
	vefMethodID uint = 901
)

// addRaffle stores an open USD raffle accepting one Zelle and one Pago
// Móvil method.
func (f *fixture) addRaffle(total, minPurchase int) domain.Raffle {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	zelle := domain.PaymentMethod{ID: usdMethodID, Kind: domain.Zelle, Name: "Zelle", IsActive: true}
	pagoMovil := domain.PaymentMethod{ID: vefMethodID, Kind: domain.PagoMovil, Name: "Pago Móvil", IsActive: true}
	f.db.methods[zelle.ID] = zelle
	f.db.methods[pagoMovil.ID] = pagoMovil

	raffle := domain.Raffle{
		ID:                f.db.id(),
		Title:             "Moto",
		Slug:              "moto",
		Currency:          domain.CurrencyUSD,
		TicketPrice:       decimal.RequireFromString("5"),
		TotalTickets:      total,
		MinTicketPurchase: minPurchase,
		Status:            domain.RaffleInProgress,
		IsActive:          true,
		PaymentMethods:    []domain.PaymentMethod{zelle, pagoMovil},
	}
	f.db.raffles[raffle.ID] = raffle

	return raffle
}

func (f *fixture) addRate(date time.Time, rate string) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	id := f.db.id()
	f.db.rates[id] = domain.ExchangeRate{ID: id, Date: dateOf(date), Rate: decimal.RequireFromString(rate), Source: domain.RateSourceManual}
}

func (f *fixture) addPrize(raffleID uint) domain.Prize {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	prize := domain.Prize{ID: f.db.id(), RaffleID: raffleID, Name: "Moto", LevelTitle: "Primer premio"}
	f.db.prizes[prize.ID] = prize

	return prize
}

func (f *fixture) participate(raffleID uint, tickets int, email string) domain.Participation {
	p, err := f.participations.Create(context.Background(), domain.Participation{
		RaffleID:             raffleID,
		FullName:             "Ana Pérez",
		IdentificationNumber: "V-12345678",
		Phone:                "(0414) 123-4567",
		Email:                email,
		TicketCount:          tickets,
	})
	if err != nil {
		panic(err)
	}

	return p
}

func (f *fixture) pay(participationID uint, reference string) domain.Payment {
	payment, err := f.payments.Create(context.Background(), CreatePaymentInput{
		ParticipationID: participationID,
		PaymentMethodID: usdMethodID,
		PaymentDate:     f.now,
		TransactionDetails: map[string]string{
			domain.DetailReference: reference,
			domain.DetailEmail:     "payer@example.com",
		},
	})
	if err != nil {
		panic(err)
	}

	return payment
}
