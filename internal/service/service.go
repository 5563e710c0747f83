// Package service содержит доменные сервисы магазина: CRUD поверх репозиториев
// одного unit of work и операции над агрегатами.
package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// UnitOfWork описывает, что сервисам нужно от unit of work: репозитории,
// коммит и запись событий для публикации после коммита.
type UnitOfWork interface {
	Repositories() domain.Repositories
	Commit(ctx context.Context) error
	Record(events ...domain.Event)
}

// Service реализует CRUD для сущности T. Каждая изменяющая операция
// заканчивается ровно одним Commit; чтение не коммитит.
type Service[T any] struct {
	uow      UnitOfWork
	repo     func(domain.Repositories) domain.Repository[T]
	entity   string
	idOf     func(T) int64
	validate func(T) []error
	logger   *log.Entry
}

func newService[T any](
	uow UnitOfWork,
	entity string,
	repo func(domain.Repositories) domain.Repository[T],
	idOf func(T) int64,
	validate func(T) []error,
	logger *log.Entry,
) *Service[T] {
	if logger == nil {
		logger = log.WithField("component", "service")
	}
	return &Service[T]{
		uow:      uow,
		repo:     repo,
		entity:   entity,
		idOf:     idOf,
		validate: validate,
		logger:   logger.WithField("entity", entity),
	}
}

func (s *Service[T]) repository() domain.Repository[T] {
	return s.repo(s.uow.Repositories())
}

// Create проверяет и сохраняет сущность. Возвращается переданное значение как есть.
func (s *Service[T]) Create(ctx context.Context, entity T) (T, error) {
	var zero T
	if err := domain.NewValidationError(s.validate(entity)); err != nil {
		return zero, fmt.Errorf("create %s: %w", s.entity, err)
	}
	if err := s.repository().Add(ctx, entity); err != nil {
		s.logger.WithError(err).Error("failed to create")
		return zero, fmt.Errorf("create %s: %w", s.entity, err)
	}
	if err := s.commit(ctx, domain.EventCreated, s.idOf(entity), nil); err != nil {
		return zero, err
	}
	return entity, nil
}

// Get возвращает сущность по идентификатору.
func (s *Service[T]) Get(ctx context.Context, id int64) (T, error) {
	return s.repository().Get(ctx, id)
}

// List возвращает сущности с указанными идентификаторами; пустой список означает все.
func (s *Service[T]) List(ctx context.Context, ids []int64) ([]T, error) {
	return s.repository().List(ctx, ids)
}

// Update перезаписывает сущность id и возвращает перечитанное значение.
func (s *Service[T]) Update(ctx context.Context, id int64, entity T) (T, error) {
	var zero T
	if err := domain.NewValidationError(s.validate(entity)); err != nil {
		return zero, fmt.Errorf("update %s %d: %w", s.entity, id, err)
	}
	updated, err := s.repository().Update(ctx, id, entity)
	if err != nil {
		return zero, fmt.Errorf("update %s %d: %w", s.entity, id, err)
	}
	if err := s.commit(ctx, domain.EventUpdated, id, nil); err != nil {
		return zero, err
	}
	return updated, nil
}

// Delete удаляет сущность id.
func (s *Service[T]) Delete(ctx context.Context, id int64) error {
	if err := s.repository().Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s %d: %w", s.entity, id, err)
	}
	return s.commit(ctx, domain.EventDeleted, id, nil)
}

// commit записывает событие и фиксирует unit of work.
func (s *Service[T]) commit(ctx context.Context, eventType domain.EventType, id int64, attrs map[string]any) error {
	s.uow.Record(domain.NewEvent(s.entity, id, eventType, attrs))
	if err := s.uow.Commit(ctx); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"id":    id,
			"event": eventType,
		}).Error("commit failed")
		return fmt.Errorf("commit %s %s: %w", s.entity, eventType, err)
	}
	s.logger.WithFields(log.Fields{"id": id, "event": eventType}).Debug("committed")
	return nil
}
