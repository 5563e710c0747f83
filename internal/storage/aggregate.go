// Package storage содержит общие для адаптеров хранилища описания агрегатов.
package storage

import "github.com/vladislavdragonenkov/shop/internal/domain"

// Aggregate описывает, как заказ или список желаний раскладывается на строку
// агрегата и строки связей с товарами, и как собирается обратно.
type Aggregate[T any] struct {
	Entity   string
	NotFound error
	Split    func(T) (id int64, customer domain.Customer, items []domain.Product)
	Build    func(id int64, customer domain.Customer, items []domain.Product) T
}

// OrderAggregate отображает domain.Order на таблицы.
var OrderAggregate = Aggregate[domain.Order]{
	Entity:   domain.EntityOrder,
	NotFound: domain.ErrOrderNotFound,
	Split: func(o domain.Order) (int64, domain.Customer, []domain.Product) {
		return o.ID, o.Customer, o.Products
	},
	Build: func(id int64, customer domain.Customer, items []domain.Product) domain.Order {
		return domain.NewOrder(id, customer, items...)
	},
}

// WishlistAggregate отображает domain.Wishlist на таблицы.
var WishlistAggregate = Aggregate[domain.Wishlist]{
	Entity:   domain.EntityWishlist,
	NotFound: domain.ErrWishlistNotFound,
	Split: func(w domain.Wishlist) (int64, domain.Customer, []domain.Product) {
		return w.ID, w.Customer, w.Products
	},
	Build: func(id int64, customer domain.Customer, items []domain.Product) domain.Wishlist {
		return domain.NewWishlist(id, customer, items...)
	},
}

// Line соответствует строке связи агрегата с товаром.
type Line struct {
	ProductID int64
	Quantity  int
}

// CollapseLines превращает позиции в строки связей. Позиции с одинаковым
// ID товара схлопываются в одну строку на месте первой, количества суммируются:
// ключ связи (агрегат, товар) уникален.
func CollapseLines(items []domain.Product) []Line {
	lines := make([]Line, 0, len(items))
	index := make(map[int64]int, len(items))
	for _, item := range items {
		if i, ok := index[item.ID]; ok {
			lines[i].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(lines)
		lines = append(lines, Line{ProductID: item.ID, Quantity: item.Quantity})
	}
	return lines
}

// LineItem собирает позицию агрегата: имя и цена берутся из каталога,
// количество из строки связи.
func LineItem(catalog domain.Product, quantity int) domain.Product {
	catalog.Quantity = quantity
	return catalog
}
