package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage"
)

// aggregateRepository хранит заказ или список желаний: строка в table
// и упорядоченные строки связей в linkTable.
type aggregateRepository[T any] struct {
	session   *Session
	aggregate storage.Aggregate[T]
	table     string
	linkTable string
	fkColumn  string
}

type aggregateHeader struct {
	id       int64
	customer domain.Customer
}

func (r *aggregateRepository[T]) op(verb string) string {
	return verb + " " + r.aggregate.Entity
}

func (r *aggregateRepository[T]) Add(ctx context.Context, entity T) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	op := r.op("insert")
	id, customer, items := r.aggregate.Split(entity)

	// Заголовок и строки связей пишутся вместе: ошибка в строке откатывает и заголовок.
	return r.session.write(ctx, op, func(tx *sql.Tx) error {
		var err error
		if id == 0 {
			err = tx.QueryRowContext(ctx, fmt.Sprintf(
				`INSERT INTO %s (customer_id) VALUES ($1) RETURNING id`, r.table,
			), customer.ID).Scan(&id)
		} else {
			_, err = tx.ExecContext(ctx, fmt.Sprintf(
				`INSERT INTO %s (id, customer_id) VALUES ($1, $2)`, r.table,
			), id, customer.ID)
			if err == nil {
				err = r.session.syncIdentity(ctx, tx, r.table)
			}
		}
		if err != nil {
			return wrapError(op, err)
		}
		return r.insertLines(ctx, tx, op, id, items)
	})
}

func (r *aggregateRepository[T]) Get(ctx context.Context, id int64) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var zero T
	op := r.op("select")
	tx, err := r.session.begin(ctx, op)
	if err != nil {
		return zero, err
	}

	var h aggregateHeader
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT a.id, c.id, c.name
		FROM %s a
		JOIN customers c ON c.id = a.customer_id
		WHERE a.id = $1
	`, r.table), id).Scan(&h.id, &h.customer.ID, &h.customer.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, r.aggregate.NotFound
		}
		return zero, wrapError(op, err)
	}

	items, err := r.loadLines(ctx, tx, h.id)
	if err != nil {
		return zero, err
	}
	return r.aggregate.Build(h.id, h.customer, items), nil
}

func (r *aggregateRepository[T]) List(ctx context.Context, ids []int64) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	op := r.op("list")
	tx, err := r.session.begin(ctx, op)
	if err != nil {
		return nil, err
	}

	query, args := listQuery(fmt.Sprintf(`
		SELECT a.id, c.id, c.name
		FROM %s a
		JOIN customers c ON c.id = a.customer_id`, r.table), "a.id", ids)
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(op, err)
	}

	// Строки заголовков читаются целиком до загрузки позиций:
	// транзакция держит одно соединение.
	headers := make([]aggregateHeader, 0)
	for rows.Next() {
		var h aggregateHeader
		if err := rows.Scan(&h.id, &h.customer.ID, &h.customer.Name); err != nil {
			_ = rows.Close()
			return nil, wrapError(op, fmt.Errorf("scan row: %w", err))
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, wrapError(op, fmt.Errorf("iterate rows: %w", err))
	}
	_ = rows.Close()

	result := make([]T, 0, len(headers))
	for _, h := range headers {
		items, err := r.loadLines(ctx, tx, h.id)
		if err != nil {
			return nil, err
		}
		result = append(result, r.aggregate.Build(h.id, h.customer, items))
	}
	return result, nil
}

func (r *aggregateRepository[T]) Update(ctx context.Context, id int64, entity T) (T, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var zero T
	op := r.op("update")
	_, customer, items := r.aggregate.Split(entity)

	err := r.session.write(opCtx, op, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(opCtx, fmt.Sprintf(
			`UPDATE %s SET customer_id = $1 WHERE id = $2`, r.table,
		), customer.ID, id)
		if err != nil {
			return wrapError(op, err)
		}
		if err := requireAffected(res, op, r.aggregate.NotFound); err != nil {
			return err
		}

		// Связи пересоздаются целиком.
		if _, err := tx.ExecContext(opCtx, fmt.Sprintf(
			`DELETE FROM %s WHERE %s = $1`, r.linkTable, r.fkColumn,
		), id); err != nil {
			return wrapError(op, fmt.Errorf("delete lines: %w", err))
		}
		return r.insertLines(opCtx, tx, op, id, items)
	})
	if err != nil {
		return zero, err
	}
	return r.Get(ctx, id)
}

func (r *aggregateRepository[T]) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	op := r.op("delete")
	return r.session.write(ctx, op, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			`DELETE FROM %s WHERE %s = $1`, r.linkTable, r.fkColumn,
		), id); err != nil {
			return wrapError(op, fmt.Errorf("delete lines: %w", err))
		}

		res, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table), id)
		if err != nil {
			return wrapError(op, err)
		}
		return requireAffected(res, op, r.aggregate.NotFound)
	})
}

func (r *aggregateRepository[T]) insertLines(ctx context.Context, tx *sql.Tx, op string, id int64, items []domain.Product) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (%s, product_id, position, quantity) VALUES ($1, $2, $3, $4)`,
		r.linkTable, r.fkColumn,
	)
	for position, line := range storage.CollapseLines(items) {
		if _, err := tx.ExecContext(ctx, query, id, line.ProductID, position, line.Quantity); err != nil {
			return wrapError(op, fmt.Errorf("insert line: %w", err))
		}
	}
	return nil
}

func (r *aggregateRepository[T]) loadLines(ctx context.Context, tx *sql.Tx, id int64) ([]domain.Product, error) {
	op := r.op("select lines of")
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`
		SELECT p.id, p.name, p.quantity, p.price_minor, l.quantity
		FROM %s l
		JOIN products p ON p.id = l.product_id
		WHERE l.%s = $1
		ORDER BY l.position
	`, r.linkTable, r.fkColumn), id)
	if err != nil {
		return nil, wrapError(op, err)
	}
	defer rows.Close()

	items := make([]domain.Product, 0)
	for rows.Next() {
		var (
			catalog  domain.Product
			quantity int
		)
		if err := rows.Scan(&catalog.ID, &catalog.Name, &catalog.Quantity, &catalog.PriceMinor, &quantity); err != nil {
			return nil, wrapError(op, fmt.Errorf("scan line: %w", err))
		}
		items = append(items, storage.LineItem(catalog, quantity))
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(op, fmt.Errorf("iterate lines: %w", err))
	}
	return items, nil
}

var (
	_ domain.OrderRepository    = (*aggregateRepository[domain.Order])(nil)
	_ domain.WishlistRepository = (*aggregateRepository[domain.Wishlist])(nil)
)
