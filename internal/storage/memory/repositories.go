package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage"
)

func constraintError(op string, format string, args ...any) error {
	return domain.NewPersistenceError(op, fmt.Errorf("%w: "+format, append([]any{domain.ErrConstraintViolation}, args...)...))
}

// selectRows возвращает строки таблицы с указанными ID (или все) по возрастанию ID.
func selectRows[R any](table map[int64]R, ids []int64) []R {
	keys := make([]int64, 0, len(table))
	if len(ids) == 0 {
		for id := range table {
			keys = append(keys, id)
		}
	} else {
		for _, id := range ids {
			if _, ok := table[id]; ok && !slices.Contains(keys, id) {
				keys = append(keys, id)
			}
		}
	}
	slices.Sort(keys)

	rows := make([]R, 0, len(keys))
	for _, id := range keys {
		rows = append(rows, table[id])
	}
	return rows
}

type productRepository struct {
	session *Session
}

func (r *productRepository) Add(_ context.Context, p domain.Product) error {
	t, err := r.session.begin("insert product")
	if err != nil {
		return err
	}
	if _, exists := t.products[p.ID]; exists && p.ID != 0 {
		return constraintError("insert product", "product %d already exists", p.ID)
	}
	id := r.session.store.nextID(domain.EntityProduct, p.ID)
	t.products[id] = productRow{ID: id, Name: p.Name, Quantity: p.Quantity, PriceMinor: p.PriceMinor}
	r.session.touch(domain.EntityProduct, id, true)
	return nil
}

func (r *productRepository) Get(_ context.Context, id int64) (domain.Product, error) {
	t, err := r.session.begin("select product")
	if err != nil {
		return domain.Product{}, err
	}
	row, ok := t.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return toProduct(row), nil
}

func (r *productRepository) List(_ context.Context, ids []int64) ([]domain.Product, error) {
	t, err := r.session.begin("list products")
	if err != nil {
		return nil, err
	}
	rows := selectRows(t.products, ids)
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, toProduct(row))
	}
	return out, nil
}

func (r *productRepository) Update(ctx context.Context, id int64, p domain.Product) (domain.Product, error) {
	t, err := r.session.begin("update product")
	if err != nil {
		return domain.Product{}, err
	}
	if _, ok := t.products[id]; !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	t.products[id] = productRow{ID: id, Name: p.Name, Quantity: p.Quantity, PriceMinor: p.PriceMinor}
	r.session.touch(domain.EntityProduct, id, false)
	return r.Get(ctx, id)
}

func (r *productRepository) Delete(_ context.Context, id int64) error {
	t, err := r.session.begin("delete product")
	if err != nil {
		return err
	}
	if _, ok := t.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	if referencesProduct(t.orders, id) || referencesProduct(t.wishlists, id) {
		return constraintError("delete product", "product %d is referenced by line items", id)
	}
	delete(t.products, id)
	r.session.touch(domain.EntityProduct, id, false)
	return nil
}

func referencesProduct(table map[int64]aggregateRow, productID int64) bool {
	for _, row := range table {
		for _, line := range row.Lines {
			if line.ProductID == productID {
				return true
			}
		}
	}
	return false
}

func toProduct(row productRow) domain.Product {
	return domain.NewProduct(row.ID, row.Name, row.Quantity, row.PriceMinor)
}

type customerRepository struct {
	session *Session
}

func (r *customerRepository) Add(_ context.Context, c domain.Customer) error {
	t, err := r.session.begin("insert customer")
	if err != nil {
		return err
	}
	if _, exists := t.customers[c.ID]; exists && c.ID != 0 {
		return constraintError("insert customer", "customer %d already exists", c.ID)
	}
	id := r.session.store.nextID(domain.EntityCustomer, c.ID)
	t.customers[id] = customerRow{ID: id, Name: c.Name}
	r.session.touch(domain.EntityCustomer, id, true)
	return nil
}

func (r *customerRepository) Get(_ context.Context, id int64) (domain.Customer, error) {
	t, err := r.session.begin("select customer")
	if err != nil {
		return domain.Customer{}, err
	}
	row, ok := t.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return domain.NewCustomer(row.ID, row.Name), nil
}

func (r *customerRepository) List(_ context.Context, ids []int64) ([]domain.Customer, error) {
	t, err := r.session.begin("list customers")
	if err != nil {
		return nil, err
	}
	rows := selectRows(t.customers, ids)
	out := make([]domain.Customer, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.NewCustomer(row.ID, row.Name))
	}
	return out, nil
}

func (r *customerRepository) Update(ctx context.Context, id int64, c domain.Customer) (domain.Customer, error) {
	t, err := r.session.begin("update customer")
	if err != nil {
		return domain.Customer{}, err
	}
	if _, ok := t.customers[id]; !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	t.customers[id] = customerRow{ID: id, Name: c.Name}
	r.session.touch(domain.EntityCustomer, id, false)
	return r.Get(ctx, id)
}

func (r *customerRepository) Delete(_ context.Context, id int64) error {
	t, err := r.session.begin("delete customer")
	if err != nil {
		return err
	}
	if _, ok := t.customers[id]; !ok {
		return domain.ErrCustomerNotFound
	}
	if referencesCustomer(t.orders, id) || referencesCustomer(t.wishlists, id) {
		return constraintError("delete customer", "customer %d is referenced", id)
	}
	delete(t.customers, id)
	r.session.touch(domain.EntityCustomer, id, false)
	return nil
}

func referencesCustomer(table map[int64]aggregateRow, customerID int64) bool {
	for _, row := range table {
		if row.CustomerID == customerID {
			return true
		}
	}
	return false
}

// aggregateRepository обслуживает заказы и списки желаний: строка агрегата
// плюс строки связей с товарами.
type aggregateRepository[T any] struct {
	session   *Session
	aggregate storage.Aggregate[T]
	table     func(*tables) map[int64]aggregateRow
}

func (r *aggregateRepository[T]) op(verb string) string {
	return verb + " " + r.aggregate.Entity
}

func (r *aggregateRepository[T]) Add(_ context.Context, entity T) error {
	op := r.op("insert")
	t, err := r.session.begin(op)
	if err != nil {
		return err
	}

	id, customer, items := r.aggregate.Split(entity)
	if _, exists := r.table(t)[id]; exists && id != 0 {
		return constraintError(op, "%s %d already exists", r.aggregate.Entity, id)
	}
	row, err := r.buildRow(t, op, id, customer, items)
	if err != nil {
		return err
	}
	row.ID = r.session.store.nextID(r.aggregate.Entity, id)
	r.table(t)[row.ID] = row
	r.session.touch(r.aggregate.Entity, row.ID, true)
	return nil
}

func (r *aggregateRepository[T]) Get(_ context.Context, id int64) (T, error) {
	var zero T
	t, err := r.session.begin(r.op("select"))
	if err != nil {
		return zero, err
	}
	row, ok := r.table(t)[id]
	if !ok {
		return zero, r.aggregate.NotFound
	}
	return r.load(t, row), nil
}

func (r *aggregateRepository[T]) List(_ context.Context, ids []int64) ([]T, error) {
	t, err := r.session.begin(r.op("list"))
	if err != nil {
		return nil, err
	}
	rows := selectRows(r.table(t), ids)
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.load(t, row))
	}
	return out, nil
}

func (r *aggregateRepository[T]) Update(ctx context.Context, id int64, entity T) (T, error) {
	var zero T
	op := r.op("update")
	t, err := r.session.begin(op)
	if err != nil {
		return zero, err
	}
	if _, ok := r.table(t)[id]; !ok {
		return zero, r.aggregate.NotFound
	}

	_, customer, items := r.aggregate.Split(entity)
	row, err := r.buildRow(t, op, id, customer, items)
	if err != nil {
		return zero, err
	}
	r.table(t)[id] = row
	r.session.touch(r.aggregate.Entity, id, false)
	return r.Get(ctx, id)
}

func (r *aggregateRepository[T]) Delete(_ context.Context, id int64) error {
	t, err := r.session.begin(r.op("delete"))
	if err != nil {
		return err
	}
	if _, ok := r.table(t)[id]; !ok {
		return r.aggregate.NotFound
	}
	// Строки связей хранятся внутри строки агрегата и удаляются вместе с ней.
	delete(r.table(t), id)
	r.session.touch(r.aggregate.Entity, id, false)
	return nil
}

// buildRow проверяет внешние ключи и раскладывает позиции на строки связей.
func (r *aggregateRepository[T]) buildRow(t *tables, op string, id int64, customer domain.Customer, items []domain.Product) (aggregateRow, error) {
	if _, ok := t.customers[customer.ID]; !ok {
		return aggregateRow{}, constraintError(op, "customer %d does not exist", customer.ID)
	}
	lines := storage.CollapseLines(items)
	for _, line := range lines {
		if _, ok := t.products[line.ProductID]; !ok {
			return aggregateRow{}, constraintError(op, "product %d does not exist", line.ProductID)
		}
	}
	return aggregateRow{ID: id, CustomerID: customer.ID, Lines: lines}, nil
}

func (r *aggregateRepository[T]) load(t *tables, row aggregateRow) T {
	c := t.customers[row.CustomerID]
	items := make([]domain.Product, 0, len(row.Lines))
	for _, line := range row.Lines {
		items = append(items, storage.LineItem(toProduct(t.products[line.ProductID]), line.Quantity))
	}
	return r.aggregate.Build(row.ID, domain.NewCustomer(c.ID, c.Name), items)
}

var (
	_ domain.ProductRepository  = (*productRepository)(nil)
	_ domain.CustomerRepository = (*customerRepository)(nil)
	_ domain.OrderRepository    = (*aggregateRepository[domain.Order])(nil)
	_ domain.WishlistRepository = (*aggregateRepository[domain.Wishlist])(nil)
)
