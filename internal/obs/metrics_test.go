package obs

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveRequest("OPTIONS", 200)
	m.ObserveRequest("OPTIONS", 200)
	m.ObserveRequest("", 501)
	m.ConnectionsActive.Inc()
	m.StreamGrantsTotal.Inc()

	require.Equal(t, float64(2), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("OPTIONS", "200")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("unknown", "501")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.ConnectionsActive))
	require.Equal(t, float64(1), testutil.ToFloat64(m.StreamGrantsTotal))
	require.Equal(t, float64(0), testutil.ToFloat64(m.StreamEvictionsTotal))

	n, err := testutil.GatherAndCount(reg, "airsink_requests_total")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)

	require.Panics(t, func() {
		NewMetrics(reg)
	})
}
