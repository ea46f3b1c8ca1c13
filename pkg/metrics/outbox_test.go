package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxMetricsCountsByEventType(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("low_stock_detected")
	m.IncPublished("low_stock_detected")
	m.IncFailed("stock_adjusted")
	m.IncDeadLettered("stock_adjusted", "max_attempts")
	m.SetPending(4)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	published, err := fetchCounterValue(mfs, "pos_outbox_published_total", "event_type", "low_stock_detected")
	require.NoError(t, err)
	assert.Equal(t, float64(2), published)

	failed, err := fetchCounterValue(mfs, "pos_outbox_publish_failures_total", "event_type", "stock_adjusted")
	require.NoError(t, err)
	assert.Equal(t, float64(1), failed)

	dead, err := fetchCounterValue(mfs, "pos_outbox_dead_lettered_total", "reason", "max_attempts")
	require.NoError(t, err)
	assert.Equal(t, float64(1), dead)

	pending := findMetricFamily(mfs, "pos_outbox_pending_events")
	require.NotNil(t, pending)
	assert.Equal(t, float64(4), pending.GetMetric()[0].GetGauge().GetValue())
}

func TestNilOutboxMetricsIsNoop(t *testing.T) {
	var m *OutboxMetrics
	m.IncPublished("x")
	m.SetPending(1)
	NewOutboxMetrics(nil).IncDeadLettered("x", "y")
}
