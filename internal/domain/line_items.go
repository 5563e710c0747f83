package domain

// Политика добавления позиций общая для заказа и списка желаний: слияние.
// Если в списке уже есть позиция, равная товару по всем полям, её количество
// увеличивается на единицу; иначе товар добавляется в конец.
// Результат всегда лежит в новом массиве: копии агрегата, разделяющие
// исходный срез, не видят изменений друг друга.
func mergeLineItem(items []Product, p Product) []Product {
	out := make([]Product, len(items), len(items)+1)
	copy(out, items)
	for i := range out {
		if out[i] == p {
			out[i].Quantity++
			return out
		}
	}
	return append(out, p)
}

// totalOf суммирует цена*количество по позициям.
func totalOf(items []Product) int64 {
	var total int64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

// cloneLineItems копирует контейнер позиций, чтобы агрегаты не делили один массив.
func cloneLineItems(items []Product) []Product {
	out := make([]Product, len(items))
	copy(out, items)
	return out
}

func validateAggregate(customer Customer, items []Product) []error {
	var errs []error
	if customer.ID <= 0 {
		errs = append(errs, ErrCustomerRequired)
	}
	for _, item := range items {
		errs = append(errs, item.Validate()...)
	}
	return errs
}
