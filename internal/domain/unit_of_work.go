package domain

import "context"

// UnitOfWork задаёт границу транзакции над набором репозиториев.
type UnitOfWork interface {
	// Repositories возвращает репозитории, работающие в текущей транзакции.
	Repositories() Repositories
	// Commit фиксирует накопленные изменения; следующая операция откроет новую транзакцию.
	Commit(ctx context.Context) error
	// Rollback отбрасывает незафиксированные изменения.
	Rollback(ctx context.Context) error
}
