package metrics

import "github.com/prometheus/client_golang/prometheus"

// LifecycleMetrics counts order status writes made by payment outcomes.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
	anomalies   prometheus.Counter
}

func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status writes by payment outcome and resulting status.",
	}, []string{"outcome", "status"})
	anomalies := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_status_overwrites_total",
		Help: "Terminal order statuses overwritten by a contradicting outcome.",
	})
	reg.MustRegister(transitions, anomalies)
	return &LifecycleMetrics{transitions: transitions, anomalies: anomalies}
}

func (m *LifecycleMetrics) IncTransition(outcome, status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(outcome), normalizeLabel(status)).Inc()
}

func (m *LifecycleMetrics) IncOverwrite() {
	if m == nil || m.anomalies == nil {
		return
	}
	m.anomalies.Inc()
}
