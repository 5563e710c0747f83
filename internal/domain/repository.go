package domain

import "context"

// Repository описывает CRUD-контракт хранилища для сущности T.
type Repository[T any] interface {
	// Add сохраняет новую сущность. ID 0 означает, что идентификатор назначит хранилище.
	Add(ctx context.Context, entity T) error
	// Get возвращает сущность по идентификатору или ошибку, совместимую с ErrNotFound.
	Get(ctx context.Context, id int64) (T, error)
	// List возвращает все сущности, либо только с идентификаторами из ids.
	// nil и пустой ids означают отсутствие фильтра. Порядок по возрастанию ID.
	List(ctx context.Context, ids []int64) ([]T, error)
	// Update перезаписывает изменяемые поля записи id и возвращает перечитанную сущность.
	Update(ctx context.Context, id int64, entity T) (T, error)
	// Delete удаляет запись вместе с принадлежащими ей строками связей.
	Delete(ctx context.Context, id int64) error
}

type (
	ProductRepository  = Repository[Product]
	CustomerRepository = Repository[Customer]
	OrderRepository    = Repository[Order]
	WishlistRepository = Repository[Wishlist]
)

// Repositories объединяет репозитории, привязанные к одной транзакции.
// Заполняется при создании сессии хранилища и дальше не меняется.
type Repositories struct {
	Products  ProductRepository
	Customers CustomerRepository
	Orders    OrderRepository
	Wishlists WishlistRepository
}
