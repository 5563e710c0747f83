package uow

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
)

// Options задаёт зависимости Manager.
type Options struct {
	Logger    *log.Entry
	Metrics   *metrics.UnitOfWorkMetrics
	Publisher domain.EventPublisher
}

// Option настраивает Manager.
type Option func(*Options)

// WithLogger задаёт logger для unit of work.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics подключает метрики коммитов и откатов.
func WithMetrics(m *metrics.UnitOfWorkMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithPublisher задаёт получателя доменных событий после коммита.
func WithPublisher(publisher domain.EventPublisher) Option {
	return func(opts *Options) {
		opts.Publisher = publisher
	}
}

// Manager выдаёт unit of work поверх фабрики сессий хранилища.
type Manager struct {
	factory SessionFactory
	opts    Options
}

// NewManager создаёт Manager с опциями.
func NewManager(factory SessionFactory, opts ...Option) *Manager {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = log.WithField("component", "uow")
	}
	return &Manager{factory: factory, opts: options}
}

// Begin открывает unit of work. Вызывающий обязан вызвать Close.
func (m *Manager) Begin(ctx context.Context) (*UnitOfWork, error) {
	session, err := m.factory.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin unit of work: %w", err)
	}

	id := uuid.NewString()
	m.opts.Metrics.RecordUnitStarted()
	return &UnitOfWork{
		id:        id,
		session:   session,
		logger:    m.opts.Logger.WithField("uow_id", id),
		metrics:   m.opts.Metrics,
		publisher: m.opts.Publisher,
	}, nil
}

// Do выполняет fn внутри unit of work: при успехе коммит, при ошибке или панике откат.
// Сессия освобождается на любом пути выхода; паника пробрасывается дальше после отката.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context, u *UnitOfWork) error) (err error) {
	u, err := m.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = u.Close(ctx, fmt.Errorf("panic: %v", r))
			panic(r)
		}
		if closeErr := u.Close(ctx, err); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	return fn(ctx, u)
}
