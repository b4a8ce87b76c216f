package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fan-out results recorded per handled event.
const (
	ResultPushed                = "pushed"
	ResultDroppedInvalid        = "dropped_invalid"
	ResultDroppedNoVendor       = "dropped_no_vendor"
	ResultDroppedDuplicate      = "dropped_duplicate"
	ResultDroppedRetryExhausted = "dropped_retry_exhausted"
	ResultRetry                 = "retry"
	ResultPushFailed            = "push_failed"
)

// FanoutMetrics records the outcome of order-placed notification handling.
type FanoutMetrics struct {
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewFanoutMetrics registers the fan-out metrics on the provided registerer.
func NewFanoutMetrics(reg prometheus.Registerer) *FanoutMetrics {
	if reg == nil {
		return &FanoutMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_events_total",
		Help: "Order placed events handled by the notification fan-out, by result.",
	}, []string{"result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notification_handle_duration_seconds",
		Help:    "Time spent handling one order placed event.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	reg.MustRegister(events, duration)
	return &FanoutMetrics{events: events, duration: duration}
}

// Observe counts one handled event and its duration.
func (m *FanoutMetrics) Observe(result string, elapsed time.Duration) {
	if m == nil || m.events == nil {
		return
	}
	label := normalizeLabel(result)
	m.events.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

// Inc counts a result that has no meaningful duration.
func (m *FanoutMetrics) Inc(result string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
