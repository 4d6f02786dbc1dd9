package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type PrometheusRecorder struct {
	counters  *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

var labelNames = []string{"event", LabelChain, LabelFacilitator}

// NewPrometheusRecorder registers the x402pay collectors on reg. A nil reg
// uses the default registerer. Collectors already registered on reg by an
// earlier recorder are reused.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	counters := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "x402pay",
			Name:      "events_total",
			Help:      "Payment lifecycle events",
		},
		labelNames,
	)

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "x402pay",
			Name:      "latency_seconds",
			Help:      "Payment lifecycle step latency",
			Buckets:   prometheus.DefBuckets,
		},
		labelNames,
	)

	counters, err := registerOrReuse(reg, counters)
	if err != nil {
		return nil, err
	}
	histogram, err = registerOrReuse(reg, histogram)
	if err != nil {
		return nil, err
	}

	return &PrometheusRecorder{
		counters:  counters,
		histogram: histogram,
	}, nil
}

func (p *PrometheusRecorder) IncCounter(name string, labels map[string]string) {
	p.counters.With(promLabels(name, labels)).Inc()
}

func (p *PrometheusRecorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	p.histogram.With(promLabels(name, labels)).Observe(d.Seconds())
}

func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}

func promLabels(name string, labels map[string]string) prometheus.Labels {
	return prometheus.Labels{
		"event":          name,
		LabelChain:       labels[LabelChain],
		LabelFacilitator: labels[LabelFacilitator],
	}
}
