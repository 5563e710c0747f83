package domain

import "fmt"

// Order агрегирует клиента и упорядоченный список позиций.
type Order struct {
	ID       int64
	Customer Customer
	Products []Product
}

// NewOrder создаёт заказ; переданный список позиций копируется.
func NewOrder(id int64, customer Customer, products ...Product) Order {
	return Order{ID: id, Customer: customer, Products: cloneLineItems(products)}
}

// AddProduct добавляет товар в заказ по политике слияния одинаковых позиций.
func (o *Order) AddProduct(p Product) {
	o.Products = mergeLineItem(o.Products, p)
}

// Checkout возвращает итоговую сумму заказа: сумма price*quantity по позициям.
func (o Order) Checkout() int64 {
	return totalOf(o.Products)
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o Order) ValidateInvariants() []error {
	return validateAggregate(o.Customer, o.Products)
}

func (o Order) String() string {
	return fmt.Sprintf("Order(id=%d, customer=%s, products=%v)", o.ID, o.Customer, o.Products)
}
