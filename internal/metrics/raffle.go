package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsAssigned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raffle_tickets_assigned_total",
		Help: "Tickets assigned to participations",
	})

	ticketsRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raffle_tickets_revoked_total",
		Help: "Tickets removed from participations",
	})

	participations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_participations_total",
			Help: "Participation attempts by result",
		},
		[]string{"result"},
	)

	paymentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_payment_transitions_total",
			Help: "Payment state changes by target status",
		},
		[]string{"status"},
	)

	drawResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_draw_results_total",
			Help: "Draw result submissions by result and outcome",
		},
		[]string{"result", "outcome"},
	)

	drawDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raffle_draw_duration_ms",
			Help:    "Draw result processing duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"result", "outcome"},
	)

	reaperRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_reaper_runs_total",
			Help: "Expiration reaper runs by outcome",
		},
		[]string{"outcome"},
	)

	rateUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_rate_updates_total",
			Help: "Exchange rate update attempts by outcome",
		},
		[]string{"outcome"},
	)
)

func RecordTicketsAssigned(n int) {
	ticketsAssigned.Add(float64(n))
}

func RecordTicketsRevoked(n int) {
	ticketsRevoked.Add(float64(n))
}

// RecordParticipation result: "created" | "not_available" | "not_enough" | "fail"
func RecordParticipation(result string) {
	participations.WithLabelValues(result).Inc()
}

func RecordPaymentTransition(status string) {
	paymentTransitions.WithLabelValues(status).Inc()
}

// RecordDraw result: "success" | "fail", outcome: "winner" | "rolled_over" | "unknown"
func RecordDraw(result, outcome string, started time.Time) {
	if result != "success" {
		result = "fail"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	drawResults.WithLabelValues(result, outcome).Inc()
	drawDuration.WithLabelValues(result, outcome).Observe(float64(time.Since(started).Milliseconds()))
}

func RecordReaper(outcome string) {
	reaperRuns.WithLabelValues(outcome).Inc()
}

func RecordRateUpdate(outcome string) {
	rateUpdates.WithLabelValues(outcome).Inc()
}
