package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// inClause строит "IN ($n, $n+1, ...)" для списка идентификаторов.
func inClause(ids []int64, first int) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "$" + strconv.Itoa(first+i)
		args[i] = id
	}
	return "IN (" + strings.Join(placeholders, ", ") + ")", args
}

// listQuery добавляет фильтр по id, если он задан, и сортировку по id.
func listQuery(base, idColumn string, ids []int64) (string, []any) {
	if len(ids) == 0 {
		return base + " ORDER BY " + idColumn, nil
	}
	in, args := inClause(ids, 1)
	return base + " WHERE " + idColumn + " " + in + " ORDER BY " + idColumn, args
}

// syncIdentity сдвигает identity-последовательность PostgreSQL за максимальный id
// после вставки с явным идентификатором.
func (s *Session) syncIdentity(ctx context.Context, tx *sql.Tx, table string) error {
	if s.store.dialect != DialectPostgres {
		return nil
	}
	_, err := tx.ExecContext(ctx, fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), (SELECT MAX(id) FROM %[1]s))`, table))
	return err
}

type productRepository struct {
	session *Session
}

func (r *productRepository) Add(ctx context.Context, p domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.session.write(ctx, "insert product", func(tx *sql.Tx) error {
		var err error
		if p.ID == 0 {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO products (name, quantity, price_minor) VALUES ($1, $2, $3)
			`, p.Name, p.Quantity, p.PriceMinor)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO products (id, name, quantity, price_minor) VALUES ($1, $2, $3, $4)
			`, p.ID, p.Name, p.Quantity, p.PriceMinor)
			if err == nil {
				err = r.session.syncIdentity(ctx, tx, "products")
			}
		}
		return wrapError("insert product", err)
	})
}

func (r *productRepository) Get(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.session.begin(ctx, "select product")
	if err != nil {
		return domain.Product{}, err
	}

	var p domain.Product
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, quantity, price_minor FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Quantity, &p.PriceMinor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, wrapError("select product", err)
	}
	return p, nil
}

func (r *productRepository) List(ctx context.Context, ids []int64) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.session.begin(ctx, "list products")
	if err != nil {
		return nil, err
	}

	query, args := listQuery("SELECT id, name, quantity, price_minor FROM products", "id", ids)
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError("list products", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Quantity, &p.PriceMinor); err != nil {
			return nil, wrapError("scan product row", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate product rows", err)
	}
	return products, nil
}

func (r *productRepository) Update(ctx context.Context, id int64, p domain.Product) (domain.Product, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.session.write(opCtx, "update product", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(opCtx, `
			UPDATE products
			SET name = $1,
			    quantity = $2,
			    price_minor = $3
			WHERE id = $4
		`, p.Name, p.Quantity, p.PriceMinor, id)
		if err != nil {
			return wrapError("update product", err)
		}
		return requireAffected(res, "update product", domain.ErrProductNotFound)
	})
	if err != nil {
		return domain.Product{}, err
	}
	return r.Get(ctx, id)
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.session.write(ctx, "delete product", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return wrapError("delete product", err)
		}
		return requireAffected(res, "delete product", domain.ErrProductNotFound)
	})
}

type customerRepository struct {
	session *Session
}

func (r *customerRepository) Add(ctx context.Context, c domain.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.session.write(ctx, "insert customer", func(tx *sql.Tx) error {
		var err error
		if c.ID == 0 {
			_, err = tx.ExecContext(ctx, `INSERT INTO customers (name) VALUES ($1)`, c.Name)
		} else {
			_, err = tx.ExecContext(ctx, `INSERT INTO customers (id, name) VALUES ($1, $2)`, c.ID, c.Name)
			if err == nil {
				err = r.session.syncIdentity(ctx, tx, "customers")
			}
		}
		return wrapError("insert customer", err)
	})
}

func (r *customerRepository) Get(ctx context.Context, id int64) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.session.begin(ctx, "select customer")
	if err != nil {
		return domain.Customer{}, err
	}

	var c domain.Customer
	err = tx.QueryRowContext(ctx, `SELECT id, name FROM customers WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, wrapError("select customer", err)
	}
	return c, nil
}

func (r *customerRepository) List(ctx context.Context, ids []int64) ([]domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.session.begin(ctx, "list customers")
	if err != nil {
		return nil, err
	}

	query, args := listQuery("SELECT id, name FROM customers", "id", ids)
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError("list customers", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, wrapError("scan customer row", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate customer rows", err)
	}
	return customers, nil
}

func (r *customerRepository) Update(ctx context.Context, id int64, c domain.Customer) (domain.Customer, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.session.write(opCtx, "update customer", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(opCtx, `UPDATE customers SET name = $1 WHERE id = $2`, c.Name, id)
		if err != nil {
			return wrapError("update customer", err)
		}
		return requireAffected(res, "update customer", domain.ErrCustomerNotFound)
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return r.Get(ctx, id)
}

func (r *customerRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.session.write(ctx, "delete customer", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
		if err != nil {
			return wrapError("delete customer", err)
		}
		return requireAffected(res, "delete customer", domain.ErrCustomerNotFound)
	})
}

// requireAffected возвращает notFound, если запрос не затронул ни одной строки.
func requireAffected(res sql.Result, op string, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return wrapError(op, fmt.Errorf("rows affected: %w", err))
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

var (
	_ domain.ProductRepository  = (*productRepository)(nil)
	_ domain.CustomerRepository = (*customerRepository)(nil)
)
