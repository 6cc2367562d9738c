package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewCheckoutMetrics(t *testing.T) {
	metrics := NewCheckoutMetrics()

	if metrics == nil {
		t.Fatal("NewCheckoutMetrics should not return nil")
	}

	if metrics.eventsDispatched == nil {
		t.Error("eventsDispatched counter vec should not be nil")
	}

	if metrics.optimisticRollbacks == nil {
		t.Error("optimisticRollbacks counter should not be nil")
	}

	if metrics.orderSubmitStarted == nil {
		t.Error("orderSubmitStarted counter should not be nil")
	}

	if metrics.orderSubmitDone == nil {
		t.Error("orderSubmitDone counter should not be nil")
	}

	if metrics.orderSubmitAborted == nil {
		t.Error("orderSubmitAborted counter should not be nil")
	}

	if metrics.orderSubmitFailed == nil {
		t.Error("orderSubmitFailed counter should not be nil")
	}

	if metrics.submitDuration == nil {
		t.Error("submitDuration histogram should not be nil")
	}

	if metrics.snapshotSaves == nil {
		t.Error("snapshotSaves counter should not be nil")
	}

	if metrics.snapshotRestores == nil {
		t.Error("snapshotRestores counter should not be nil")
	}

	if metrics.staleResultsDropped == nil {
		t.Error("staleResultsDropped counter should not be nil")
	}
}

// Повторное создание метрик переиспользует уже зарегистрированные коллекторы,
// а не падает на AlreadyRegisteredError.
func TestNewCheckoutMetrics_ReregistrationIsSafe(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newCheckoutMetricsWithRegisterer(reg)
	second := newCheckoutMetricsWithRegisterer(reg)

	if first.optimisticRollbacks != second.optimisticRollbacks {
		t.Error("re-registration should return the existing counter")
	}
	if first.eventsDispatched != second.eventsDispatched {
		t.Error("re-registration should return the existing counter vec")
	}
	if first.submitDuration != second.submitDuration {
		t.Error("re-registration should return the existing histogram")
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := c.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func TestRecordCounters(t *testing.T) {
	// Изолированный registry, чтобы не пересекаться с default.
	metrics := newCheckoutMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordOptimisticRollback()
	metrics.RecordOrderSubmitStarted()
	metrics.RecordOrderSubmitStarted()
	metrics.RecordOrderSubmitCompleted()
	metrics.RecordOrderSubmitAborted()
	metrics.RecordOrderSubmitFailed()
	metrics.RecordSnapshotSave()
	metrics.RecordSnapshotRestore()
	metrics.RecordStaleResultDropped()

	if got := counterValue(t, metrics.optimisticRollbacks); got != 1.0 {
		t.Errorf("expected optimisticRollbacks 1.0, got %f", got)
	}
	if got := counterValue(t, metrics.orderSubmitStarted); got != 2.0 {
		t.Errorf("expected orderSubmitStarted 2.0, got %f", got)
	}
	if got := counterValue(t, metrics.orderSubmitDone); got != 1.0 {
		t.Errorf("expected orderSubmitDone 1.0, got %f", got)
	}
	if got := counterValue(t, metrics.orderSubmitAborted); got != 1.0 {
		t.Errorf("expected orderSubmitAborted 1.0, got %f", got)
	}
	if got := counterValue(t, metrics.orderSubmitFailed); got != 1.0 {
		t.Errorf("expected orderSubmitFailed 1.0, got %f", got)
	}
	if got := counterValue(t, metrics.snapshotSaves); got != 1.0 {
		t.Errorf("expected snapshotSaves 1.0, got %f", got)
	}
	if got := counterValue(t, metrics.snapshotRestores); got != 1.0 {
		t.Errorf("expected snapshotRestores 1.0, got %f", got)
	}
	if got := counterValue(t, metrics.staleResultsDropped); got != 1.0 {
		t.Errorf("expected staleResultsDropped 1.0, got %f", got)
	}
}

func TestRecordEventDispatched(t *testing.T) {
	metrics := newCheckoutMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordEventDispatched("checkout.flow.initialized")
	metrics.RecordEventDispatched("checkout.flow.initialized")
	metrics.RecordEventDispatched("checkout.order.requested")

	metric := &dto.Metric{}
	if err := metrics.eventsDispatched.WithLabelValues("checkout.flow.initialized").Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected counter value 2.0, got %f", metric.Counter.GetValue())
	}

	metric = &dto.Metric{}
	if err := metrics.eventsDispatched.WithLabelValues("checkout.order.requested").Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1.0 {
		t.Errorf("expected counter value 1.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordSubmitDuration(t *testing.T) {
	metrics := newCheckoutMetricsWithRegisterer(prometheus.NewRegistry())

	metrics.RecordSubmitDuration(150 * time.Millisecond)
	metrics.RecordSubmitDuration(300 * time.Millisecond)

	metric := &dto.Metric{}
	if err := metrics.submitDuration.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("expected 2 samples, got %d", metric.Histogram.GetSampleCount())
	}
	want := 0.15 + 0.3
	if got := metric.Histogram.GetSampleSum(); got < want-0.001 || got > want+0.001 {
		t.Errorf("expected sample sum ~%f, got %f", want, got)
	}
}
