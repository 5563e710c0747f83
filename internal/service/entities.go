package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// ProductService обслуживает CRUD товаров каталога.
type ProductService struct {
	*Service[domain.Product]
}

// NewProductService создаёт сервис товаров поверх unit of work.
func NewProductService(uow UnitOfWork, logger *log.Entry) *ProductService {
	return &ProductService{newService(uow, domain.EntityProduct,
		func(r domain.Repositories) domain.Repository[domain.Product] { return r.Products },
		func(p domain.Product) int64 { return p.ID },
		domain.Product.Validate,
		logger,
	)}
}

// CustomerService обслуживает CRUD клиентов.
type CustomerService struct {
	*Service[domain.Customer]
}

// NewCustomerService создаёт сервис клиентов поверх unit of work.
func NewCustomerService(uow UnitOfWork, logger *log.Entry) *CustomerService {
	return &CustomerService{newService(uow, domain.EntityCustomer,
		func(r domain.Repositories) domain.Repository[domain.Customer] { return r.Customers },
		func(c domain.Customer) int64 { return c.ID },
		domain.Customer.Validate,
		logger,
	)}
}

// OrderService обслуживает заказы: CRUD, добавление позиций и расчёт суммы.
type OrderService struct {
	*Service[domain.Order]
}

// NewOrderService создаёт сервис заказов поверх unit of work.
func NewOrderService(uow UnitOfWork, logger *log.Entry) *OrderService {
	return &OrderService{newService(uow, domain.EntityOrder,
		func(r domain.Repositories) domain.Repository[domain.Order] { return r.Orders },
		func(o domain.Order) int64 { return o.ID },
		domain.Order.ValidateInvariants,
		logger,
	)}
}

// AddProduct добавляет товар в заказ по политике слияния и сохраняет заказ.
func (s *OrderService) AddProduct(ctx context.Context, orderID int64, product domain.Product) (domain.Order, error) {
	order, err := s.repository().Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("add product to order %d: %w", orderID, err)
	}
	order.AddProduct(product)

	updated, err := s.repository().Update(ctx, orderID, order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("add product to order %d: %w", orderID, err)
	}
	if err := s.commit(ctx, domain.EventProductAdded, orderID, map[string]any{"product_id": product.ID}); err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}

// Checkout возвращает итоговую сумму заказа. Не изменяет хранилище.
func (s *OrderService) Checkout(ctx context.Context, orderID int64) (int64, error) {
	order, err := s.repository().Get(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("checkout order %d: %w", orderID, err)
	}
	return order.Checkout(), nil
}

// WishlistService обслуживает списки желаний и их превращение в заказы.
type WishlistService struct {
	*Service[domain.Wishlist]
}

// NewWishlistService создаёт сервис списков желаний поверх unit of work.
func NewWishlistService(uow UnitOfWork, logger *log.Entry) *WishlistService {
	return &WishlistService{newService(uow, domain.EntityWishlist,
		func(r domain.Repositories) domain.Repository[domain.Wishlist] { return r.Wishlists },
		func(w domain.Wishlist) int64 { return w.ID },
		domain.Wishlist.ValidateInvariants,
		logger,
	)}
}

// AddProduct добавляет товар в список желаний и сохраняет его.
func (s *WishlistService) AddProduct(ctx context.Context, wishlistID int64, product domain.Product) (domain.Wishlist, error) {
	wishlist, err := s.repository().Get(ctx, wishlistID)
	if err != nil {
		return domain.Wishlist{}, fmt.Errorf("add product to wishlist %d: %w", wishlistID, err)
	}
	wishlist.AddProduct(product)

	updated, err := s.repository().Update(ctx, wishlistID, wishlist)
	if err != nil {
		return domain.Wishlist{}, fmt.Errorf("add product to wishlist %d: %w", wishlistID, err)
	}
	if err := s.commit(ctx, domain.EventProductAdded, wishlistID, map[string]any{"product_id": product.ID}); err != nil {
		return domain.Wishlist{}, err
	}
	return updated, nil
}

// CreateOrder создаёт заказ orderID из списка желаний. Список желаний не меняется.
func (s *WishlistService) CreateOrder(ctx context.Context, wishlistID, orderID int64) (domain.Order, error) {
	wishlist, err := s.repository().Get(ctx, wishlistID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order from wishlist %d: %w", wishlistID, err)
	}

	order := wishlist.CreateOrder(orderID)
	if err := s.uow.Repositories().Orders.Add(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("create order from wishlist %d: %w", wishlistID, err)
	}
	s.uow.Record(domain.NewEvent(domain.EntityOrder, orderID, domain.EventCreated, nil))
	if err := s.commit(ctx, domain.EventWishlistConverted, wishlistID, map[string]any{"order_id": orderID}); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}
