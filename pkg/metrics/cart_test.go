package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCartMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCartMetrics(reg)
	metrics.IncCommit("add_item")
	metrics.IncCommit("add_item")
	metrics.IncRollback("add_item", "STOCK_LIMIT_EXCEEDED")
	metrics.ObserveGateway("add_item", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_mutation_commits_total", "operation", "add_item"); err != nil {
		t.Fatalf("fetch commits: %v", err)
	} else if got != 2 {
		t.Fatalf("expected commits=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "cart_mutation_rollbacks_total", "operation", "add_item"); err != nil {
		t.Fatalf("fetch rollbacks: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rollbacks=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "cart_gateway_duration_seconds", "operation", "add_item"); err != nil {
		t.Fatalf("fetch gateway duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestCartMetricsNormalizesLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCartMetrics(reg)
	metrics.IncRollback(" Add_Item ", "")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_mutation_rollbacks_total", "code", "unknown"); err != nil {
		t.Fatalf("fetch rollbacks: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rollbacks=1, got %f", got)
	}
}

func TestCartMetricsNilRegistererIsNoOp(t *testing.T) {
	metrics := NewCartMetrics(nil)
	metrics.IncCommit("add_item")
	metrics.IncRollback("add_item", "DEPENDENCY_FAILURE")
	metrics.ObserveGateway("add_item", time.Millisecond)
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
