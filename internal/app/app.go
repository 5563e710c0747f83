// Package app собирает runtime магазина: хранилище, публикацию событий,
// метрики и менеджер unit of work.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/metrics"
	"github.com/vladislavdragonenkov/shop/internal/uow"
)

// Runtime содержит собранные зависимости приложения.
type Runtime struct {
	Manager *uow.Manager
	Metrics *metrics.UnitOfWorkMetrics

	storage *storage
	events  *events
	logger  *log.Entry
}

// Options задаёт необязательные зависимости Open.
type Options struct {
	Registerer prometheus.Registerer
	Logger     *log.Entry
}

// Option настраивает Open.
type Option func(*Options)

// WithRegisterer задаёт реестр Prometheus для метрик unit of work.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(opts *Options) {
		opts.Registerer = reg
	}
}

// WithLogger задаёт базовый logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// Open поднимает хранилище по конфигурации и собирает Manager.
// Kafka подключается, только если заданы брокеры.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Runtime, error) {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	logger := options.Logger
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	st, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	ev := initEvents(cfg, logger)

	m := metrics.NewUnitOfWorkMetricsWithRegisterer(options.Registerer)
	manager := uow.NewManager(st.factory,
		uow.WithLogger(log.WithField("component", "uow")),
		uow.WithMetrics(m),
		uow.WithPublisher(ev.publisher),
	)

	return &Runtime{
		Manager: manager,
		Metrics: m,
		storage: st,
		events:  ev,
		logger:  logger,
	}, nil
}

// Close освобождает хранилище и producer.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	if r.events != nil {
		if err := r.events.close(); err != nil {
			r.logger.WithError(err).Warn("failed to close event publisher")
		}
	}
	if r.storage == nil {
		return nil
	}
	if err := r.storage.close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}
