package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты публикации событий для метки result.
const (
	PublishResultSent   = "sent"
	PublishResultFailed = "failed"
)

// UnitOfWorkMetrics содержит метрики транзакционных границ.
// Методы безопасны для nil-получателя, чтобы метрики можно было не подключать.
type UnitOfWorkMetrics struct {
	// Счётчики исходов
	commits       prometheus.Counter
	commitsFailed prometheus.Counter
	rollbacks     prometheus.Counter

	commitDuration prometheus.Histogram

	// События после коммита, по результату публикации
	eventsPublished *prometheus.CounterVec

	// Gauge для открытых unit of work
	activeUnits prometheus.Gauge
}

// NewUnitOfWorkMetrics создаёт метрики в DefaultRegisterer.
func NewUnitOfWorkMetrics() *UnitOfWorkMetrics {
	return NewUnitOfWorkMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewUnitOfWorkMetricsWithRegisterer создаёт метрики в переданном реестре.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewUnitOfWorkMetricsWithRegisterer(registerer prometheus.Registerer) *UnitOfWorkMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &UnitOfWorkMetrics{
		commits: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_uow_commits_total",
			Help: "Total number of successful unit of work commits",
		}),
		commitsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_uow_commits_failed_total",
			Help: "Total number of failed unit of work commits",
		}),
		rollbacks: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_uow_rollbacks_total",
			Help: "Total number of unit of work rollbacks",
		}),
		commitDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "shop_uow_commit_duration_seconds",
			Help:    "Duration of unit of work commits in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		eventsPublished: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_domain_events_published_total",
			Help: "Total number of domain events handed to the publisher, grouped by result",
		}, []string{"result"}),
		activeUnits: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "shop_uow_active",
			Help: "Number of currently open units of work",
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

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
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

// RecordUnitStarted увеличивает количество открытых unit of work.
func (m *UnitOfWorkMetrics) RecordUnitStarted() {
	if m == nil {
		return
	}
	m.activeUnits.Inc()
}

// RecordUnitFinished уменьшает количество открытых unit of work.
func (m *UnitOfWorkMetrics) RecordUnitFinished() {
	if m == nil {
		return
	}
	m.activeUnits.Dec()
}

// RecordCommit фиксирует успешный коммит и его длительность.
func (m *UnitOfWorkMetrics) RecordCommit(duration time.Duration) {
	if m == nil {
		return
	}
	m.commits.Inc()
	m.commitDuration.Observe(duration.Seconds())
}

// RecordCommitFailed увеличивает счётчик неудачных коммитов.
func (m *UnitOfWorkMetrics) RecordCommitFailed() {
	if m == nil {
		return
	}
	m.commitsFailed.Inc()
}

// RecordRollback увеличивает счётчик откатов.
func (m *UnitOfWorkMetrics) RecordRollback() {
	if m == nil {
		return
	}
	m.rollbacks.Inc()
}

// RecordEventPublished учитывает результат публикации доменного события.
func (m *UnitOfWorkMetrics) RecordEventPublished(result string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(result).Inc()
}
