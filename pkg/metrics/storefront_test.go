package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStorefrontMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewStorefrontMetrics(reg)
	metrics.IncCartMutation("add")
	metrics.IncCartMutation("add")
	metrics.IncCheckoutOutcome("")
	metrics.ObservePayment("test_success", 250*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_mutations_total", "operation", "add"); err != nil {
		t.Fatalf("fetch cart mutations: %v", err)
	} else if got != 2 {
		t.Fatalf("expected cart mutations=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "checkout_outcomes_total", "result", "unknown"); err != nil {
		t.Fatalf("fetch checkout outcomes: %v", err)
	} else if got != 1 {
		t.Fatalf("expected empty result to normalize to unknown, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "payment_authorize_duration_seconds", "outcome", "test_success"); err != nil {
		t.Fatalf("fetch payment latency: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected latency sum > 0, got %f", got)
	}
}

func TestObserveJobSplitsResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewStorefrontMetrics(reg)
	metrics.ObserveJob("checkout-sweep", 5*time.Millisecond, nil)
	metrics.ObserveJob("cart-slot-retention", time.Millisecond, errors.New("db down"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "janitor_job_runs_total", "result", "failure"); err != nil {
		t.Fatalf("fetch job failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected one failed run, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "janitor_job_duration_seconds", "job", "checkout-sweep"); err != nil {
		t.Fatalf("fetch job duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var metrics *StorefrontMetrics
	metrics.IncCartMutation("add")
	metrics.IncCheckoutOutcome("completed")
	metrics.ObservePayment("test_success", time.Second)
	metrics.ObserveJob("checkout-sweep", time.Second, nil)

	unregistered := NewStorefrontMetrics(nil)
	unregistered.IncCartMutation("add")
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
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, key, value string) bool {
	for _, lbl := range labels {
		if lbl.GetName() == key && lbl.GetValue() == value {
			return true
		}
	}
	return false
}
