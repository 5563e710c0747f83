package domain

import "fmt"

// Wishlist хранит желаемые товары клиента и может превратиться в заказ.
type Wishlist struct {
	ID       int64
	Customer Customer
	Products []Product
}

// NewWishlist создаёт список желаний; переданный список позиций копируется.
func NewWishlist(id int64, customer Customer, products ...Product) Wishlist {
	return Wishlist{ID: id, Customer: customer, Products: cloneLineItems(products)}
}

// AddProduct добавляет товар по той же политике слияния, что и Order.AddProduct.
func (w *Wishlist) AddProduct(p Product) {
	w.Products = mergeLineItem(w.Products, p)
}

// Total возвращает стоимость всех позиций списка.
func (w Wishlist) Total() int64 {
	return totalOf(w.Products)
}

// CreateOrder строит новый заказ с тем же клиентом и копией списка позиций.
// Изменение позиций заказа не затрагивает список желаний.
func (w Wishlist) CreateOrder(orderID int64) Order {
	return Order{
		ID:       orderID,
		Customer: w.Customer,
		Products: cloneLineItems(w.Products),
	}
}

// ValidateInvariants проверяет клиента и позиции списка.
func (w Wishlist) ValidateInvariants() []error {
	return validateAggregate(w.Customer, w.Products)
}

func (w Wishlist) String() string {
	return fmt.Sprintf("Wishlist(id=%d, customer=%s, products=%v)", w.ID, w.Customer, w.Products)
}
