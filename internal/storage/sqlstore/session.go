package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage"
	"github.com/vladislavdragonenkov/shop/internal/uow"
)

const (
	opTimeout = 5 * time.Second
	// Точка сохранения вокруг одной записи репозитория.
	writeSavepoint = "repository_write"
)

// Session держит одну транзакцию БД на unit of work. Транзакция открывается
// при первом запросе, после Commit/Rollback следующий запрос откроет новую.
type Session struct {
	store  *Store
	tx     *sql.Tx
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
			table:     "orders",
			linkTable: "order_products",
			fkColumn:  "order_id",
		},
		Wishlists: &aggregateRepository[domain.Wishlist]{
			session:   s,
			aggregate: storage.WishlistAggregate,
			table:     "wishlists",
			linkTable: "wishlist_products",
			fkColumn:  "wishlist_id",
		},
	}
	return s
}

// Repositories возвращает репозитории, работающие в транзакции сессии.
func (s *Session) Repositories() domain.Repositories {
	return s.repos
}

// InTransaction сообщает, открыта ли транзакция БД.
func (s *Session) InTransaction() bool {
	return s.tx != nil
}

// Commit фиксирует текущую транзакцию, если она была открыта.
func (s *Session) Commit(_ context.Context) error {
	if s.closed {
		return domain.NewPersistenceError("commit", domain.ErrSessionClosed)
	}
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return wrapError("commit", err)
	}
	return nil
}

// Rollback откатывает текущую транзакцию, если она была открыта.
func (s *Session) Rollback(_ context.Context) error {
	if s.closed {
		return domain.NewPersistenceError("rollback", domain.ErrSessionClosed)
	}
	return s.rollback()
}

// Close откатывает незафиксированную транзакцию и закрывает сессию.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.rollback()
}

func (s *Session) rollback() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return wrapError("rollback", err)
	}
	return nil
}

// begin возвращает открытую транзакцию, при необходимости начиная новую.
// Транзакция не привязана к отмене ctx конкретного запроса.
func (s *Session) begin(ctx context.Context, op string) (*sql.Tx, error) {
	if s.closed {
		return nil, domain.NewPersistenceError(op, domain.ErrSessionClosed)
	}
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.store.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return nil, wrapError(op, fmt.Errorf("begin tx: %w", err))
	}
	s.tx = tx
	return tx, nil
}

// write выполняет запись fn внутри точки сохранения. Ошибка fn откатывает
// только её изменения: транзакция остаётся пригодной для следующих операций,
// в том числе в PostgreSQL, который иначе помечает её прерванной.
func (s *Session) write(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.begin(ctx, op)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+writeSavepoint); err != nil {
		return wrapError(op, fmt.Errorf("savepoint: %w", err))
	}

	if err := fn(tx); err != nil {
		undoCtx := context.WithoutCancel(ctx)
		if _, undoErr := tx.ExecContext(undoCtx, "ROLLBACK TO SAVEPOINT "+writeSavepoint); undoErr != nil {
			return errors.Join(err, wrapError(op, fmt.Errorf("rollback to savepoint: %w", undoErr)))
		}
		_, _ = tx.ExecContext(undoCtx, "RELEASE SAVEPOINT "+writeSavepoint)
		return err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+writeSavepoint); err != nil {
		return wrapError(op, fmt.Errorf("release savepoint: %w", err))
	}
	return nil
}

// wrapError превращает ошибку драйвера в PersistenceError;
// нарушения ограничений дополнительно помечаются ErrConstraintViolation.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isConstraintViolation(err) {
		err = fmt.Errorf("%w: %w", domain.ErrConstraintViolation, err)
	}
	return domain.NewPersistenceError(op, err)
}

// isConstraintViolation распознаёт ошибки класса 23 PostgreSQL
// и сообщения SQLite вида "... constraint failed".
func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	return strings.Contains(strings.ToLower(err.Error()), "constraint failed")
}

var _ uow.Session = (*Session)(nil)
