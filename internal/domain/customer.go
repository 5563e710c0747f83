package domain

import (
	"fmt"
	"strings"
)

// Customer владеет заказами и списками желаний. После создания не меняется.
type Customer struct {
	ID   int64
	Name string
}

// NewCustomer собирает клиента из полей.
func NewCustomer(id int64, name string) Customer {
	return Customer{ID: id, Name: name}
}

// Validate проверяет имя клиента.
func (c Customer) Validate() []error {
	if strings.TrimSpace(c.Name) == "" {
		return []error{ErrNameRequired}
	}
	return nil
}

func (c Customer) String() string {
	return fmt.Sprintf("Customer(id=%d, name=%q)", c.ID, c.Name)
}
