package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the assistance lifecycle and campaign budget paths.
type Metrics struct {
	// Successful lifecycle transitions by audit event type
	Transitions *prometheus.CounterVec

	// Budget reservations by outcome: reserved, released, exceeded, error
	BudgetReservations *prometheus.CounterVec

	// Retries taken after a concurrent campaign write
	BudgetRetries prometheus.Counter

	// Loans found overdue by the last listing
	OverdueLoans prometheus.Gauge
}

// New registers on reg; pass nil to use the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assistance_transitions_total",
			Help: "Assistance lifecycle transitions by event type",
		}, []string{"event"}),

		BudgetReservations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_budget_reservations_total",
			Help: "Campaign budget reservation attempts by outcome",
		}, []string{"outcome"}),

		BudgetRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "campaign_budget_retries_total",
			Help: "Campaign writes retried after an optimistic lock conflict",
		}),

		OverdueLoans: f.NewGauge(prometheus.GaugeOpts{
			Name: "equipment_overdue_loans",
			Help: "Overdue equipment loans at the last listing",
		}),
	}
}

func (m *Metrics) IncTransition(event string) {
	if m != nil {
		m.Transitions.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) IncBudget(outcome string) {
	if m != nil {
		m.BudgetReservations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncBudgetRetry() {
	if m != nil {
		m.BudgetRetries.Inc()
	}
}

func (m *Metrics) SetOverdueLoans(n int) {
	if m != nil {
		m.OverdueLoans.Set(float64(n))
	}
}
