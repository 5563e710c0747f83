package uow

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
)

// ErrClosed возвращается при обращении к уже закрытому unit of work.
var ErrClosed = errors.New("unit of work is closed")

// UnitOfWork связывает репозитории одной сессии хранилища с транзакционной границей.
// Не предназначен для одновременного использования из нескольких горутин.
type UnitOfWork struct {
	id        string
	session   Session
	logger    *log.Entry
	metrics   *metrics.UnitOfWorkMetrics
	publisher domain.EventPublisher

	pending []domain.Event
	closed  bool
}

// ID возвращает идентификатор unit of work для корреляции логов.
func (u *UnitOfWork) ID() string {
	return u.id
}

// Repositories возвращает репозитории текущей сессии.
func (u *UnitOfWork) Repositories() domain.Repositories {
	return u.session.Repositories()
}

// Record откладывает события до следующего успешного коммита.
func (u *UnitOfWork) Record(events ...domain.Event) {
	if u.closed {
		return
	}
	u.pending = append(u.pending, events...)
}

// Commit фиксирует изменения и публикует накопленные события.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.closed {
		return ErrClosed
	}
	return u.commit(ctx)
}

// Rollback отменяет незафиксированные изменения и отбрасывает события.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.closed {
		return ErrClosed
	}
	return u.rollback(ctx)
}

// Close завершает unit of work: коммит, если cause == nil, иначе откат.
// Сессия освобождается в любом случае. Повторный вызов ничего не делает.
func (u *UnitOfWork) Close(ctx context.Context, cause error) error {
	if u.closed {
		return nil
	}
	u.closed = true
	defer u.metrics.RecordUnitFinished()

	var err error
	if cause != nil {
		u.logger.WithError(cause).Debug("closing unit of work with error, rolling back")
		err = u.rollback(ctx)
	} else if err = u.commit(ctx); err != nil {
		if rbErr := u.session.Rollback(ctx); rbErr != nil {
			u.logger.WithError(rbErr).Warn("rollback after failed commit")
		}
	}

	if closeErr := u.session.Close(); closeErr != nil {
		u.logger.WithError(closeErr).Warn("failed to release storage session")
		err = errors.Join(err, fmt.Errorf("close session: %w", closeErr))
	}
	return err
}

// commit фиксирует открытую транзакцию. Без транзакции фиксировать нечего:
// метрика коммита не пишется, события всё равно передаются publisher-у.
// При ошибке события отбрасываются вместе с изменениями.
func (u *UnitOfWork) commit(ctx context.Context) error {
	if !u.session.InTransaction() {
		u.flushEvents()
		return nil
	}

	start := time.Now()
	if err := u.session.Commit(ctx); err != nil {
		u.pending = nil
		u.metrics.RecordCommitFailed()
		u.logger.WithError(err).Error("commit failed")
		return fmt.Errorf("commit unit of work: %w", err)
	}
	u.metrics.RecordCommit(time.Since(start))
	u.logger.WithField("events", len(u.pending)).Debug("unit of work committed")

	u.flushEvents()
	return nil
}

func (u *UnitOfWork) rollback(ctx context.Context) error {
	u.pending = nil
	u.metrics.RecordRollback()
	if err := u.session.Rollback(ctx); err != nil {
		u.logger.WithError(err).Error("rollback failed")
		return fmt.Errorf("rollback unit of work: %w", err)
	}
	u.logger.Debug("unit of work rolled back")
	return nil
}

// flushEvents передаёт события publisher-у. Коммит уже состоялся,
// поэтому ошибки публикации только логируются и считаются.
func (u *UnitOfWork) flushEvents() {
	events := u.pending
	u.pending = nil
	if u.publisher == nil {
		return
	}

	for _, event := range events {
		if err := u.publisher.Publish(event); err != nil {
			u.metrics.RecordEventPublished(metrics.PublishResultFailed)
			u.logger.WithError(err).WithFields(log.Fields{
				"entity":    event.Entity,
				"entity_id": event.EntityID,
				"type":      event.Type,
			}).Warn("failed to publish domain event")
			continue
		}
		u.metrics.RecordEventPublished(metrics.PublishResultSent)
	}
}

var _ domain.UnitOfWork = (*UnitOfWork)(nil)
