package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusRecorder(reg)
	require.NoError(t, err)

	labels := map[string]string{LabelChain: "solana", LabelFacilitator: "payai"}
	rec.IncCounter(EventVerify, labels)
	rec.IncCounter(EventVerify, labels)
	rec.ObserveLatency(EventVerify, 150*time.Millisecond, labels)

	got := testutil.ToFloat64(rec.counters.WithLabelValues(EventVerify, "solana", "payai"))
	assert.Equal(t, 2.0, got)
	assert.Equal(t, 1, testutil.CollectAndCount(rec.histogram))
}

func TestPrometheusRecorderReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheusRecorder(reg)
	require.NoError(t, err)

	second, err := NewPrometheusRecorder(reg)
	require.NoError(t, err)

	labels := map[string]string{LabelChain: "solana", LabelFacilitator: "payai"}
	first.IncCounter(EventSettle, labels)
	second.IncCounter(EventSettle, labels)

	assert.Same(t, first.counters, second.counters)
	assert.Equal(t, 2.0, testutil.ToFloat64(first.counters.WithLabelValues(EventSettle, "solana", "payai")))
}

func TestPrometheusRecorderConflictingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "x402pay",
		Name:      "events_total",
		Help:      "Payment lifecycle events",
	})))

	_, err := NewPrometheusRecorder(reg)
	assert.Error(t, err)
}

func TestOrNoop(t *testing.T) {
	assert.IsType(t, NoopRecorder{}, OrNoop(nil))
}
