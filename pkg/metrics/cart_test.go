package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCartMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCartMetrics(reg)

	metrics.IncMutation("add", "ok")
	metrics.IncMutation("add", "ok")
	metrics.IncMerge("merged")
	metrics.ObserveMergeDuration(120 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := counterValue(mfs, "cart_mutations_total", map[string]string{"op": "add", "outcome": "ok"}); got != 2 {
		t.Fatalf("expected mutation counter 2, got %f", got)
	}
	if got := counterValue(mfs, "cart_merge_attempts_total", map[string]string{"outcome": "merged"}); got != 1 {
		t.Fatalf("expected merge counter 1, got %f", got)
	}
	if findMetricFamily(mfs, "cart_merge_duration_seconds") == nil {
		t.Fatal("expected merge duration histogram to be registered")
	}
}

func TestCartMetricsNilSafe(t *testing.T) {
	var metrics *CartMetrics
	metrics.IncMutation("add", "ok")
	metrics.IncMerge("merged")
	metrics.ObserveMergeDuration(time.Second)

	unregistered := NewCartMetrics(nil)
	unregistered.IncMutation("remove", "ok")
}

func TestNormalizeLabel(t *testing.T) {
	if got := normalizeLabel(""); got != "unknown" {
		t.Fatalf("empty label = %q, want unknown", got)
	}
	if got := normalizeLabel("ok"); got != "ok" {
		t.Fatalf("label = %q, want ok", got)
	}
}

func counterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) float64 {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return -1
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue()
		}
	}
	return -1
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	got := map[string]string{}
	for _, pair := range pairs {
		got[pair.GetName()] = pair.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}
