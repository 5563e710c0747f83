package uow

import (
	"context"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Session представляет транзакционную сессию адаптера хранилища.
// Транзакция открывается лениво при первой операции репозитория,
// Commit и Rollback её завершают, Close освобождает ресурсы.
type Session interface {
	domain.UnitOfWork
	// InTransaction сообщает, открыта ли сейчас транзакция.
	InTransaction() bool
	Close() error
}

// SessionFactory открывает новые сессии хранилища.
type SessionFactory interface {
	Begin(ctx context.Context) (Session, error)
}
