package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCheckoutMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.Attempts.WithLabelValues("completed").Inc()
	m.Compensations.WithLabelValues("release_stock", "ok").Add(2)
	m.Duration.WithLabelValues("cash").Observe(0.2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues("completed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Compensations.WithLabelValues("release_stock", "ok")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := []string{}
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"tecnoshop_checkout_attempts_total",
		"tecnoshop_checkout_compensations_total",
		"tecnoshop_checkout_duration_seconds",
	}, names)
}
