package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncTransition("validated")
	m.IncTransition("validated")
	m.IncBudget("exceeded")
	m.IncBudgetRetry()
	m.SetOverdueLoans(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("validated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BudgetReservations.WithLabelValues("exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BudgetRetries))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OverdueLoans))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncTransition("paid")
		m.IncBudget("reserved")
		m.IncBudgetRetry()
		m.SetOverdueLoans(1)
	})
}
