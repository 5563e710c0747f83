package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

func TestProductRepository_AssignsIDs(t *testing.T) {
	session := begin(t, memory.NewStore())
	ctx := context.Background()
	repo := session.Repositories().Products

	if err := repo.Add(ctx, domain.NewProduct(5, "Explicit", 1, 10)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := repo.Add(ctx, domain.NewProduct(0, "Generated", 1, 10)); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	generated, err := repo.Get(ctx, 6)
	if err != nil {
		t.Fatalf("get generated failed: %v", err)
	}
	if generated.Name != "Generated" {
		t.Fatalf("expected generated product at id 6, got %v", generated)
	}

	err = repo.Add(ctx, domain.NewProduct(5, "Duplicate", 1, 10))
	if !errors.Is(err, domain.ErrConstraintViolation) || !domain.IsPersistence(err) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
}

func TestProductRepository_List(t *testing.T) {
	session := begin(t, memory.NewStore())
	seedCatalog(t, session)
	ctx := context.Background()
	repo := session.Repositories().Products

	tests := []struct {
		name string
		ids  []int64
		want []int64
	}{
		{name: "nil ids", ids: nil, want: []int64{1, 2}},
		{name: "empty ids", ids: []int64{}, want: []int64{1, 2}},
		{name: "subset", ids: []int64{2}, want: []int64{2}},
		{name: "unknown ids skipped", ids: []int64{2, 99, 1}, want: []int64{1, 2}},
		{name: "only unknown", ids: []int64{99}, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := repo.List(ctx, tt.ids)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if len(products) != len(tt.want) {
				t.Fatalf("expected %d products, got %d", len(tt.want), len(products))
			}
			for i, id := range tt.want {
				if products[i].ID != id {
					t.Fatalf("expected id %d at %d, got %d", id, i, products[i].ID)
				}
			}
		})
	}
}

func TestProductRepository_UpdateDelete(t *testing.T) {
	session := begin(t, memory.NewStore())
	seedCatalog(t, session)
	ctx := context.Background()
	repo := session.Repositories().Products

	updated, err := repo.Update(ctx, 1, domain.NewProduct(1, "Notebook", 3, 150))
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, err := repo.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != updated || got.Name != "Notebook" {
		t.Fatalf("update then get mismatch: %v vs %v", got, updated)
	}

	if _, err := repo.Update(ctx, 42, domain.NewProduct(42, "Ghost", 1, 1)); !domain.IsNotFound(err) {
		t.Fatalf("expected not found on update, got %v", err)
	}

	if err := repo.Delete(ctx, 2); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, 2); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := repo.Delete(ctx, 2); !domain.IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestOrderRepository_RoundTrip(t *testing.T) {
	session := begin(t, memory.NewStore())
	seedCatalog(t, session)
	ctx := context.Background()
	repos := session.Repositories()

	customer, err := repos.Customers.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get customer failed: %v", err)
	}
	order := domain.NewOrder(1, customer,
		domain.NewProduct(2, "Pen", 2, 300),
		domain.NewProduct(1, "Book", 1, 100),
	)
	if err := repos.Orders.Add(ctx, order); err != nil {
		t.Fatalf("add order failed: %v", err)
	}

	stored, err := repos.Orders.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if stored.Customer != customer {
		t.Fatalf("unexpected customer: %v", stored.Customer)
	}
	if len(stored.Products) != 2 || stored.Products[0].ID != 2 || stored.Products[1].ID != 1 {
		t.Fatalf("line order must be preserved: %v", stored.Products)
	}
	if stored.Checkout() != 700 {
		t.Fatalf("expected checkout 700, got %d", stored.Checkout())
	}

	stored.AddProduct(domain.NewProduct(1, "Book", 1, 100))
	updated, err := repos.Orders.Update(ctx, 1, stored)
	if err != nil {
		t.Fatalf("update order failed: %v", err)
	}
	if updated.Products[1].Quantity != 2 {
		t.Fatalf("merged quantity must survive reload: %v", updated.Products)
	}
}

func TestOrderRepository_ForeignKeys(t *testing.T) {
	session := begin(t, memory.NewStore())
	seedCatalog(t, session)
	ctx := context.Background()
	repos := session.Repositories()
	customer := domain.NewCustomer(1, "Jane")

	err := repos.Orders.Add(ctx, domain.NewOrder(1, domain.NewCustomer(9, "Nobody")))
	if !errors.Is(err, domain.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation for unknown customer, got %v", err)
	}
	err = repos.Orders.Add(ctx, domain.NewOrder(1, customer, domain.NewProduct(77, "Ghost", 1, 1)))
	if !errors.Is(err, domain.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation for unknown product, got %v", err)
	}

	if err := repos.Wishlists.Add(ctx, domain.NewWishlist(1, customer, domain.NewProduct(2, "Pen", 1, 300))); err != nil {
		t.Fatalf("add wishlist failed: %v", err)
	}
	if err := repos.Customers.Delete(ctx, 1); !errors.Is(err, domain.ErrConstraintViolation) {
		t.Fatalf("expected restricted customer delete, got %v", err)
	}
	if err := repos.Products.Delete(ctx, 2); !errors.Is(err, domain.ErrConstraintViolation) {
		t.Fatalf("expected restricted product delete, got %v", err)
	}

	if err := repos.Wishlists.Delete(ctx, 1); err != nil {
		t.Fatalf("delete wishlist failed: %v", err)
	}
	if err := repos.Products.Delete(ctx, 2); err != nil {
		t.Fatalf("product must be deletable once link rows are gone: %v", err)
	}
}

func TestWishlistRepository_DuplicateProductLinesCollapse(t *testing.T) {
	session := begin(t, memory.NewStore())
	seedCatalog(t, session)
	ctx := context.Background()
	repos := session.Repositories()

	wishlist := domain.NewWishlist(0, domain.NewCustomer(1, "Jane"),
		domain.NewProduct(1, "Book", 1, 100),
		domain.NewProduct(1, "Book", 2, 100),
	)
	if err := repos.Wishlists.Add(ctx, wishlist); err != nil {
		t.Fatalf("add wishlist failed: %v", err)
	}

	all, err := repos.Wishlists.List(ctx, nil)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 1 || len(all[0].Products) != 1 || all[0].Products[0].Quantity != 3 {
		t.Fatalf("expected one collapsed line with quantity 3, got %v", all)
	}
	if all[0].Total() != wishlist.Total() {
		t.Fatalf("total must be preserved: %d vs %d", all[0].Total(), wishlist.Total())
	}
}

func TestOrderRepository_FailedAddLeavesNothingBehind(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	session := begin(t, store)
	seedCatalog(t, session)

	broken := domain.NewOrder(5, domain.NewCustomer(1, "Jane"),
		domain.NewProduct(1, "Book", 1, 100),
		domain.NewProduct(99, "Missing", 1, 1),
	)
	if err := session.Repositories().Orders.Add(ctx, broken); !errors.Is(err, domain.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
	if err := session.Repositories().Customers.Add(ctx, domain.NewCustomer(2, "John")); err != nil {
		t.Fatalf("add after failed insert: %v", err)
	}
	if err := session.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	orders, err := begin(t, store).Repositories().Orders.List(ctx, nil)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected no orders, got %v", orders)
	}
}
