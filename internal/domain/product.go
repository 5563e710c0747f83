package domain

import (
	"fmt"
	"strings"
)

// Product описывает товар каталога и одновременно позицию заказа/списка желаний.
type Product struct {
	ID       int64
	Name     string
	Quantity int
	// Цена за единицу в минимальных денежных единицах.
	PriceMinor int64
}

// NewProduct собирает товар из полей.
func NewProduct(id int64, name string, quantity int, priceMinor int64) Product {
	return Product{ID: id, Name: name, Quantity: quantity, PriceMinor: priceMinor}
}

// Subtotal возвращает стоимость позиции: цена * количество.
func (p Product) Subtotal() int64 {
	return p.PriceMinor * int64(p.Quantity)
}

// Validate проверяет поля товара и возвращает список замечаний.
func (p Product) Validate() []error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ErrNameRequired)
	}
	if p.Quantity < 0 {
		errs = append(errs, ErrQuantityNegative)
	}
	if p.PriceMinor < 0 {
		errs = append(errs, ErrPriceNegative)
	}
	return errs
}

func (p Product) String() string {
	return fmt.Sprintf("Product(id=%d, name=%q, quantity=%d, price=%d)", p.ID, p.Name, p.Quantity, p.PriceMinor)
}
