// Package metrics provides observability for the conversation module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks conversation throughput and decision outcomes.
type Metrics struct {
	HandleDuration        prometheus.Histogram
	IntentsResolved       *prometheus.CounterVec
	StageTransitions      *prometheus.CounterVec
	UnderwritingDecisions *prometheus.CounterVec
	OffersGenerated       *prometheus.CounterVec
	FraudDecisions        *prometheus.CounterVec
	LettersGenerated      prometheus.Counter
}

// New creates a Metrics instance with all conversation metrics registered.
func New() *Metrics {
	return &Metrics{
		HandleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "credgen_handle_duration_seconds",
			Help:    "Duration of chat message handling",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		IntentsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credgen_intents_resolved_total",
			Help: "Resolved intents by name",
		}, []string{"intent"}),
		StageTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credgen_stage_transitions_total",
			Help: "Stage machine transitions",
		}, []string{"from", "to"}),
		UnderwritingDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credgen_underwriting_decisions_total",
			Help: "Underwriting outcomes",
		}, []string{"outcome"}),
		OffersGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credgen_offers_generated_total",
			Help: "Offers generated by type",
		}, []string{"type"}),
		FraudDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credgen_fraud_decisions_total",
			Help: "Fraud check outcomes by flag",
		}, []string{"flag"}),
		LettersGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credgen_sanction_letters_total",
			Help: "Sanction letters generated",
		}),
	}
}

// ObserveHandle records the duration of a Handle call started at start.
func (m *Metrics) ObserveHandle(start time.Time) {
	m.HandleDuration.Observe(time.Since(start).Seconds())
}

// IncIntent records one resolved intent.
func (m *Metrics) IncIntent(intent string) {
	m.IntentsResolved.WithLabelValues(intent).Inc()
}

// IncTransition records one stage transition.
func (m *Metrics) IncTransition(from, to string) {
	m.StageTransitions.WithLabelValues(from, to).Inc()
}

// IncUnderwriting records an underwriting outcome.
func (m *Metrics) IncUnderwriting(outcome string) {
	m.UnderwritingDecisions.WithLabelValues(outcome).Inc()
}

// IncOffer records a generated offer by type.
func (m *Metrics) IncOffer(offerType string) {
	m.OffersGenerated.WithLabelValues(offerType).Inc()
}

// IncFraud records a fraud decision by flag.
func (m *Metrics) IncFraud(flag string) {
	m.FraudDecisions.WithLabelValues(flag).Inc()
}

// IncLetter records one generated sanction letter.
func (m *Metrics) IncLetter() {
	m.LettersGenerated.Inc()
}
