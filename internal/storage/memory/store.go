package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage"
	"github.com/vladislavdragonenkov/shop/internal/uow"
)

// aggregateRow хранит заказ или список желаний вместе со строками связей.
type aggregateRow struct {
	ID         int64
	CustomerID int64
	Lines      []storage.Line
}

// tables содержит снимок всех таблиц хранилища.
type tables struct {
	products  map[int64]productRow
	customers map[int64]customerRow
	orders    map[int64]aggregateRow
	wishlists map[int64]aggregateRow
}

type productRow struct {
	ID         int64
	Name       string
	Quantity   int
	PriceMinor int64
}

type customerRow struct {
	ID   int64
	Name string
}

func newTables() *tables {
	return &tables{
		products:  make(map[int64]productRow),
		customers: make(map[int64]customerRow),
		orders:    make(map[int64]aggregateRow),
		wishlists: make(map[int64]aggregateRow),
	}
}

// clone копирует таблицы целиком, включая строки связей.
func (t *tables) clone() *tables {
	return &tables{
		products:  maps.Clone(t.products),
		customers: maps.Clone(t.customers),
		orders:    cloneAggregates(t.orders),
		wishlists: cloneAggregates(t.wishlists),
	}
}

func cloneAggregates(src map[int64]aggregateRow) map[int64]aggregateRow {
	out := make(map[int64]aggregateRow, len(src))
	for id, row := range src {
		row.Lines = slices.Clone(row.Lines)
		out[id] = row
	}
	return out
}

// rowKey адресует строку таблицы: имя сущности и ID.
type rowKey struct {
	table string
	id    int64
}

// writeSet: строки, изменённые транзакцией. Значение true означает,
// что первой операцией над строкой была вставка.
type writeSet map[rowKey]bool

// Store реализует in-memory хранилище для локальной разработки и тестов.
// Сессия читает собственную копию таблиц, а при Commit переносит в общие
// таблицы только затронутые строки. Одновременная запись одной и той же
// строки разными сессиями сохраняет последнюю.
type Store struct {
	mu        sync.RWMutex
	tables    *tables
	sequences map[string]int64
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{tables: newTables(), sequences: make(map[string]int64)}
}

// Begin открывает новую сессию.
func (s *Store) Begin(_ context.Context) (uow.Session, error) {
	return newSession(s), nil
}

func (s *Store) snapshot() *tables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables.clone()
}

// nextID выдаёт идентификатор для строки с ID 0, либо продвигает
// последовательность за явно переданный ID. Как и последовательности БД,
// не откатывается вместе с транзакцией.
func (s *Store) nextID(table string, explicit int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if explicit != 0 {
		if explicit > s.sequences[table] {
			s.sequences[table] = explicit
		}
		return explicit
	}
	s.sequences[table]++
	return s.sequences[table]
}

// apply переносит строки из writes поверх текущих таблиц и проверяет
// внешние ключи по результату. При ошибке таблицы не меняются.
func (s *Store) apply(tx *tables, writes writeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.tables.clone()
	for key, inserted := range writes {
		var err error
		switch key.table {
		case domain.EntityProduct:
			err = mergeRow(next.products, tx.products, key, inserted)
		case domain.EntityCustomer:
			err = mergeRow(next.customers, tx.customers, key, inserted)
		case domain.EntityOrder:
			err = mergeRow(next.orders, tx.orders, key, inserted)
		case domain.EntityWishlist:
			err = mergeRow(next.wishlists, tx.wishlists, key, inserted)
		}
		if err != nil {
			return err
		}
	}
	if err := checkReferences(next, writes); err != nil {
		return err
	}
	s.tables = next
	return nil
}

func mergeRow[R any](dst, src map[int64]R, key rowKey, inserted bool) error {
	row, ok := src[key.id]
	switch {
	case !ok && inserted:
		// Вставлена и удалена в той же транзакции.
	case !ok:
		delete(dst, key.id)
	case inserted:
		if _, exists := dst[key.id]; exists {
			return constraintError("commit", "%s %d already exists", key.table, key.id)
		}
		dst[key.id] = row
	default:
		dst[key.id] = row
	}
	return nil
}

// checkReferences проверяет внешние ключи затронутых строк на итоговых таблицах.
func checkReferences(t *tables, writes writeSet) error {
	for key := range writes {
		switch key.table {
		case domain.EntityOrder, domain.EntityWishlist:
			table := t.orders
			if key.table == domain.EntityWishlist {
				table = t.wishlists
			}
			row, ok := table[key.id]
			if !ok {
				continue
			}
			if _, ok := t.customers[row.CustomerID]; !ok {
				return constraintError("commit", "customer %d does not exist", row.CustomerID)
			}
			for _, line := range row.Lines {
				if _, ok := t.products[line.ProductID]; !ok {
					return constraintError("commit", "product %d does not exist", line.ProductID)
				}
			}
		case domain.EntityCustomer:
			if _, ok := t.customers[key.id]; !ok &&
				(referencesCustomer(t.orders, key.id) || referencesCustomer(t.wishlists, key.id)) {
				return constraintError("commit", "customer %d is referenced", key.id)
			}
		case domain.EntityProduct:
			if _, ok := t.products[key.id]; !ok &&
				(referencesProduct(t.orders, key.id) || referencesProduct(t.wishlists, key.id)) {
				return constraintError("commit", "product %d is referenced by line items", key.id)
			}
		}
	}
	return nil
}

var _ uow.SessionFactory = (*Store)(nil)
