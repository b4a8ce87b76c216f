package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestFanoutMetricsExportsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFanoutMetrics(reg)
	m.Observe(ResultPushed, 250*time.Millisecond)
	m.Observe(ResultPushed, 50*time.Millisecond)
	m.Inc(ResultDroppedNoVendor)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "notification_events_total", "result", ResultPushed); err != nil {
		t.Fatalf("fetch pushed: %v", err)
	} else if got != 2 {
		t.Fatalf("expected pushed=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "notification_events_total", "result", ResultDroppedNoVendor); err != nil {
		t.Fatalf("fetch dropped: %v", err)
	} else if got != 1 {
		t.Fatalf("expected dropped=1, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "notification_handle_duration_seconds", "result", ResultPushed); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestOutboxAndLifecycleMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	outbox := NewOutboxMetrics(reg)
	lifecycle := NewLifecycleMetrics(reg)
	upstream := NewUpstreamMetrics(reg)

	outbox.IncPublished("order_placed")
	outbox.IncFailed("")
	lifecycle.IncTransition("SUCCESS", "CONFIRMED")
	lifecycle.IncOverwrite()
	upstream.Observe("menu", "ok", 10*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_published_total", "topic", "order_placed"); err != nil || got != 1 {
		t.Fatalf("unexpected published value %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_failed_total", "reason", "unknown"); err != nil || got != 1 {
		t.Fatalf("blank reason should be normalized, value %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "order_status_transitions_total", "status", "CONFIRMED"); err != nil || got != 1 {
		t.Fatalf("unexpected transitions value %f err=%v", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "upstream_request_duration_seconds", "upstream", "menu"); err != nil || got <= 0 {
		t.Fatalf("unexpected upstream sum %f err=%v", got, err)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var fanout *FanoutMetrics
	fanout.Observe(ResultRetry, time.Second)
	fanout.Inc(ResultRetry)
	NewFanoutMetrics(nil).Inc(ResultRetry)

	var outbox *OutboxMetrics
	outbox.IncPublished("x")
	var lifecycle *LifecycleMetrics
	lifecycle.IncOverwrite()
	var upstream *UpstreamMetrics
	upstream.Observe("menu", "ok", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
