package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики слоя оркестрации checkout.
type CheckoutMetrics struct {
	// Счётчик событий, прошедших через dispatcher, по типу события.
	eventsDispatched *prometheus.CounterVec

	// Счётчики оптимистичных мутаций адресов.
	optimisticRollbacks prometheus.Counter

	// Счётчики отправки заказа.
	orderSubmitStarted prometheus.Counter
	orderSubmitDone    prometheus.Counter
	orderSubmitAborted prometheus.Counter
	orderSubmitFailed  prometheus.Counter

	// Гистограмма времени отправки заказа.
	submitDuration prometheus.Histogram

	// Счётчики персистентности снапшота.
	snapshotSaves    prometheus.Counter
	snapshotRestores prometheus.Counter

	// Счётчик отброшенных устаревших результатов (switch-to-latest).
	staleResultsDropped prometheus.Counter
}

// NewCheckoutMetrics создаёт метрики в default registry.
func NewCheckoutMetrics() *CheckoutMetrics {
	return newCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CheckoutMetrics{
		eventsDispatched: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_events_dispatched_total",
			Help: "Total number of store events dispatched, grouped by event type",
		}, []string{"event"}),
		optimisticRollbacks: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_optimistic_rollbacks_total",
			Help: "Total number of optimistic mutations rolled back after a gateway failure",
		}),
		orderSubmitStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_order_submit_started_total",
			Help: "Total number of order submissions started",
		}),
		orderSubmitDone: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_order_submit_completed_total",
			Help: "Total number of order submissions completed successfully",
		}),
		orderSubmitAborted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_order_submit_aborted_total",
			Help: "Total number of order submissions aborted locally before any network call",
		}),
		orderSubmitFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_order_submit_failed_total",
			Help: "Total number of order submissions failed by the gateway",
		}),
		submitDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "storefront_order_submit_duration_seconds",
			Help:    "Duration of order submissions in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		snapshotSaves: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_snapshot_saves_total",
			Help: "Total number of checkout snapshots persisted to session storage",
		}),
		snapshotRestores: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_snapshot_restores_total",
			Help: "Total number of checkout snapshots rehydrated at boot",
		}),
		staleResultsDropped: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_stale_results_dropped_total",
			Help: "Total number of in-flight results discarded because a newer request superseded them",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordEventDispatched увеличивает счётчик событий по типу.
func (m *CheckoutMetrics) RecordEventDispatched(eventType string) {
	m.eventsDispatched.WithLabelValues(eventType).Inc()
}

// RecordOptimisticRollback увеличивает счётчик откатов оптимистичных мутаций.
func (m *CheckoutMetrics) RecordOptimisticRollback() {
	m.optimisticRollbacks.Inc()
}

// RecordOrderSubmitStarted увеличивает счётчик начатых отправок заказа.
func (m *CheckoutMetrics) RecordOrderSubmitStarted() {
	m.orderSubmitStarted.Inc()
}

// RecordOrderSubmitCompleted увеличивает счётчик успешных отправок.
func (m *CheckoutMetrics) RecordOrderSubmitCompleted() {
	m.orderSubmitDone.Inc()
}

// RecordOrderSubmitAborted увеличивает счётчик локально прерванных отправок.
func (m *CheckoutMetrics) RecordOrderSubmitAborted() {
	m.orderSubmitAborted.Inc()
}

// RecordOrderSubmitFailed увеличивает счётчик отправок, отклонённых бекендом.
func (m *CheckoutMetrics) RecordOrderSubmitFailed() {
	m.orderSubmitFailed.Inc()
}

// RecordSubmitDuration записывает время отправки заказа.
func (m *CheckoutMetrics) RecordSubmitDuration(duration time.Duration) {
	m.submitDuration.Observe(duration.Seconds())
}

// RecordSnapshotSave увеличивает счётчик сохранённых снапшотов.
func (m *CheckoutMetrics) RecordSnapshotSave() {
	m.snapshotSaves.Inc()
}

// RecordSnapshotRestore увеличивает счётчик восстановленных снапшотов.
func (m *CheckoutMetrics) RecordSnapshotRestore() {
	m.snapshotRestores.Inc()
}

// RecordStaleResultDropped увеличивает счётчик отброшенных устаревших результатов.
func (m *CheckoutMetrics) RecordStaleResultDropped() {
	m.staleResultsDropped.Inc()
}
