package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics observes calls to the menu and restaurant services.
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
}

func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Latency of upstream lookups by service and result.",
		Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"upstream", "result"})
	reg.MustRegister(duration)
	return &UpstreamMetrics{duration: duration}
}

func (m *UpstreamMetrics) Observe(upstream, result string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(upstream), normalizeLabel(result)).Observe(elapsed.Seconds())
}
