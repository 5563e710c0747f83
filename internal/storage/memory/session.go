package memory

import (
	"context"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage"
	"github.com/vladislavdragonenkov/shop/internal/uow"
)

// Session ведёт транзакцию поверх копии таблиц Store.
type Session struct {
	store  *Store
	tx     *tables
	writes writeSet
	closed bool
	repos  domain.Repositories
}

func newSession(store *Store) *Session {
	s := &Session{store: store}
	s.repos = domain.Repositories{
		Products:  &productRepository{session: s},
		Customers: &customerRepository{session: s},
		Orders: &aggregateRepository[domain.Order]{
			session:   s,
			aggregate: storage.OrderAggregate,
			table:     func(t *tables) map[int64]aggregateRow { return t.orders },
		},
		Wishlists: &aggregateRepository[domain.Wishlist]{
			session:   s,
			aggregate: storage.WishlistAggregate,
			table:     func(t *tables) map[int64]aggregateRow { return t.wishlists },
		},
	}
	return s
}

// Repositories возвращает репозитории, привязанные к сессии.
func (s *Session) Repositories() domain.Repositories {
	return s.repos
}

// InTransaction сообщает, была ли с последнего Commit/Rollback операция репозитория.
func (s *Session) InTransaction() bool {
	return s.tx != nil
}

// Commit переносит изменённые строки в хранилище. Транзакция завершается
// и при ошибке; следующая операция начнёт новую.
func (s *Session) Commit(_ context.Context) error {
	if s.closed {
		return domain.NewPersistenceError("commit", domain.ErrSessionClosed)
	}
	tx, writes := s.tx, s.writes
	s.tx, s.writes = nil, nil
	if tx == nil || len(writes) == 0 {
		return nil
	}
	return s.store.apply(tx, writes)
}

// Rollback отбрасывает изменения транзакции.
func (s *Session) Rollback(_ context.Context) error {
	if s.closed {
		return domain.NewPersistenceError("rollback", domain.ErrSessionClosed)
	}
	s.tx, s.writes = nil, nil
	return nil
}

// Close отбрасывает незафиксированные изменения и закрывает сессию.
func (s *Session) Close() error {
	s.tx, s.writes = nil, nil
	s.closed = true
	return nil
}

// begin лениво открывает транзакцию.
func (s *Session) begin(op string) (*tables, error) {
	if s.closed {
		return nil, domain.NewPersistenceError(op, domain.ErrSessionClosed)
	}
	if s.tx == nil {
		s.tx = s.store.snapshot()
		s.writes = make(writeSet)
	}
	return s.tx, nil
}

// touch отмечает строку как изменённую транзакцией.
func (s *Session) touch(table string, id int64, inserted bool) {
	key := rowKey{table: table, id: id}
	if _, seen := s.writes[key]; !seen {
		s.writes[key] = inserted
	}
}

var _ uow.Session = (*Session)(nil)
