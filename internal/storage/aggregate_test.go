package storage

import (
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestCollapseLines(t *testing.T) {
	items := []domain.Product{
		domain.NewProduct(2, "Pen", 1, 50),
		domain.NewProduct(1, "Book", 2, 100),
		domain.NewProduct(2, "Pen", 3, 50),
	}

	lines := CollapseLines(items)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != (Line{ProductID: 2, Quantity: 4}) {
		t.Fatalf("unexpected first line: %+v", lines[0])
	}
	if lines[1] != (Line{ProductID: 1, Quantity: 2}) {
		t.Fatalf("unexpected second line: %+v", lines[1])
	}
}

func TestCollapseLinesEmpty(t *testing.T) {
	lines := CollapseLines(nil)
	if lines == nil || len(lines) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", lines)
	}
}

func TestAggregateRoundTrip(t *testing.T) {
	customer := domain.NewCustomer(1, "Jane")
	order := domain.NewOrder(5, customer, domain.NewProduct(1, "Book", 1, 100))

	id, c, items := OrderAggregate.Split(order)
	rebuilt := OrderAggregate.Build(id, c, items)
	if rebuilt.ID != 5 || rebuilt.Customer != customer || len(rebuilt.Products) != 1 {
		t.Fatalf("unexpected rebuilt order: %v", rebuilt)
	}

	items[0].Quantity = 9
	if rebuilt.Products[0].Quantity != 1 {
		t.Fatal("rebuilt aggregate must own its line items")
	}
}

func TestLineItem(t *testing.T) {
	catalog := domain.NewProduct(3, "Lamp", 40, 700)
	item := LineItem(catalog, 2)
	if item.Quantity != 2 || item.Name != "Lamp" || item.PriceMinor != 700 {
		t.Fatalf("unexpected line item: %v", item)
	}
	if catalog.Quantity != 40 {
		t.Fatal("catalog row must stay unchanged")
	}
}
