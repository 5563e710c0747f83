package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
	"github.com/vladislavdragonenkov/shop/internal/uow"
)

// countingUnitOfWork считает коммиты поверх сессии in-memory хранилища.
type countingUnitOfWork struct {
	session   uow.Session
	commits   int
	events    []domain.Event
	commitErr error
}

func newCountingUnitOfWork(t *testing.T) *countingUnitOfWork {
	t.Helper()
	session, err := memory.NewStore().Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return &countingUnitOfWork{session: session}
}

func (u *countingUnitOfWork) Repositories() domain.Repositories {
	return u.session.Repositories()
}

func (u *countingUnitOfWork) Commit(ctx context.Context) error {
	u.commits++
	if u.commitErr != nil {
		return u.commitErr
	}
	return u.session.Commit(ctx)
}

func (u *countingUnitOfWork) Record(events ...domain.Event) {
	u.events = append(u.events, events...)
}

func seed(t *testing.T, u *countingUnitOfWork) {
	t.Helper()
	ctx := context.Background()
	_, err := service.NewCustomerService(u, nil).Create(ctx, domain.NewCustomer(1, "Jane"))
	require.NoError(t, err)
	products := service.NewProductService(u, nil)
	_, err = products.Create(ctx, domain.NewProduct(1, "Book", 10, 100))
	require.NoError(t, err)
	_, err = products.Create(ctx, domain.NewProduct(2, "Pen", 50, 300))
	require.NoError(t, err)
	u.commits = 0
	u.events = nil
}

func TestService_CreateReturnsValueAndCommitsOnce(t *testing.T) {
	u := newCountingUnitOfWork(t)
	products := service.NewProductService(u, nil)

	in := domain.NewProduct(0, "Lamp", 2, 700)
	out, err := products.Create(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, in, out)
	require.Equal(t, 1, u.commits)
	require.Len(t, u.events, 1)
	require.Equal(t, domain.EventCreated, u.events[0].Type)
}

func TestService_CreateRejectsInvalidEntity(t *testing.T) {
	u := newCountingUnitOfWork(t)
	products := service.NewProductService(u, nil)

	_, err := products.Create(context.Background(), domain.NewProduct(1, " ", -1, 10))
	require.ErrorIs(t, err, domain.ErrValidation)
	require.ErrorIs(t, err, domain.ErrNameRequired)
	require.ErrorIs(t, err, domain.ErrQuantityNegative)
	require.Zero(t, u.commits)
}

func TestService_GetListDoNotCommit(t *testing.T) {
	u := newCountingUnitOfWork(t)
	seed(t, u)
	ctx := context.Background()
	products := service.NewProductService(u, nil)

	p, err := products.Get(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "Pen", p.Name)

	all, err := products.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	empty, err := products.List(ctx, []int64{})
	require.NoError(t, err)
	require.Equal(t, all, empty)

	subset, err := products.List(ctx, []int64{1})
	require.NoError(t, err)
	require.Len(t, subset, 1)
	require.Equal(t, int64(1), subset[0].ID)

	require.Zero(t, u.commits)
}

func TestService_UpdateThenGet(t *testing.T) {
	u := newCountingUnitOfWork(t)
	seed(t, u)
	ctx := context.Background()
	customers := service.NewCustomerService(u, nil)

	updated, err := customers.Update(ctx, 1, domain.NewCustomer(1, "Janet"))
	require.NoError(t, err)
	require.Equal(t, 1, u.commits)

	got, err := customers.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, updated, got)

	_, err = customers.Update(ctx, 99, domain.NewCustomer(99, "Ghost"))
	require.True(t, domain.IsNotFound(err))
	require.Equal(t, 1, u.commits)
}

func TestService_DeleteThenGet(t *testing.T) {
	u := newCountingUnitOfWork(t)
	seed(t, u)
	ctx := context.Background()
	products := service.NewProductService(u, nil)

	require.NoError(t, products.Delete(ctx, 2))
	require.Equal(t, 1, u.commits)

	_, err := products.Get(ctx, 2)
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	err = products.Delete(ctx, 2)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Equal(t, 1, u.commits)
}

func TestService_CommitFailureIsReturned(t *testing.T) {
	u := newCountingUnitOfWork(t)
	u.commitErr = domain.NewPersistenceError("commit", errors.New("connection lost"))

	_, err := service.NewCustomerService(u, nil).Create(context.Background(), domain.NewCustomer(1, "Jane"))
	require.Error(t, err)
	require.True(t, domain.IsPersistence(err))
	require.Equal(t, 1, u.commits)
}

func TestOrderService_AddProductAndCheckout(t *testing.T) {
	u := newCountingUnitOfWork(t)
	seed(t, u)
	ctx := context.Background()
	orders := service.NewOrderService(u, nil)
	customer := domain.NewCustomer(1, "Jane")
	book := domain.NewProduct(1, "Book", 1, 100)

	_, err := orders.Create(ctx, domain.NewOrder(1, customer, book))
	require.NoError(t, err)

	order, err := orders.AddProduct(ctx, 1, book)
	require.NoError(t, err)
	require.Len(t, order.Products, 1)
	require.Equal(t, 2, order.Products[0].Quantity)
	require.Equal(t, 2, u.commits)

	commitsBefore := u.commits
	total, err := orders.Checkout(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(200), total)
	require.Equal(t, commitsBefore, u.commits, "checkout must not commit")

	_, err = orders.Checkout(ctx, 42)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderService_CreateRequiresCustomer(t *testing.T) {
	u := newCountingUnitOfWork(t)
	orders := service.NewOrderService(u, nil)

	_, err := orders.Create(context.Background(), domain.NewOrder(1, domain.Customer{}))
	require.ErrorIs(t, err, domain.ErrCustomerRequired)
	require.Zero(t, u.commits)
}

func TestWishlistService_AddProductAndCreateOrder(t *testing.T) {
	u := newCountingUnitOfWork(t)
	seed(t, u)
	ctx := context.Background()
	wishlists := service.NewWishlistService(u, nil)
	orders := service.NewOrderService(u, nil)
	customer := domain.NewCustomer(1, "Jane")

	_, err := wishlists.Create(ctx, domain.NewWishlist(1, customer))
	require.NoError(t, err)
	_, err = wishlists.AddProduct(ctx, 1, domain.NewProduct(2, "Pen", 1, 300))
	require.NoError(t, err)
	wishlist, err := wishlists.AddProduct(ctx, 1, domain.NewProduct(1, "Book", 1, 100))
	require.NoError(t, err)
	require.Equal(t, int64(400), wishlist.Total())
	require.Equal(t, 3, u.commits)

	order, err := wishlists.CreateOrder(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 4, u.commits)
	require.Equal(t, customer, order.Customer)
	require.Equal(t, wishlist.Products, order.Products)

	stored, err := orders.Get(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, order, stored)

	// Изменение заказа не затрагивает список желаний.
	_, err = orders.AddProduct(ctx, 10, domain.NewProduct(2, "Pen", 1, 300))
	require.NoError(t, err)
	unchanged, err := wishlists.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, wishlist, unchanged)

	checkout, err := orders.Checkout(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, int64(700), checkout)

	_, err = wishlists.CreateOrder(ctx, 99, 11)
	require.ErrorIs(t, err, domain.ErrWishlistNotFound)
}

func TestWishlistService_CreateOrderRecordsEvents(t *testing.T) {
	u := newCountingUnitOfWork(t)
	seed(t, u)
	ctx := context.Background()
	wishlists := service.NewWishlistService(u, nil)

	_, err := wishlists.Create(ctx, domain.NewWishlist(1, domain.NewCustomer(1, "Jane")))
	require.NoError(t, err)
	u.events = nil

	_, err = wishlists.CreateOrder(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, u.events, 2)
	require.Equal(t, domain.EntityOrder, u.events[0].Entity)
	require.Equal(t, domain.EventCreated, u.events[0].Type)
	require.Equal(t, domain.EventWishlistConverted, u.events[1].Type)
	require.Equal(t, int64(5), u.events[1].Attributes["order_id"])
}
