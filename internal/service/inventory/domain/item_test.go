package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		qty, threshold int
		want           StockStatus
	}{
		{0, 0, StatusOutOfStock},
		{0, 10, StatusOutOfStock},
		{1, 10, StatusLowStock},
		{10, 10, StatusLowStock},
		{11, 10, StatusInStock},
		{5, 0, StatusInStock},
		{1, 1, StatusLowStock},
	}
	for _, c := range cases {
		if got := DeriveStatus(c.qty, c.threshold); got != c.want {
			t.Errorf("DeriveStatus(%d, %d) = %s, want %s", c.qty, c.threshold, got, c.want)
		}
	}
}

func TestNewItemDerivesStatus(t *testing.T) {
	item, err := NewItem("milk-1", "Milk", "", CategoryDrink, decimal.NewFromFloat(2.50), decimal.NewFromFloat(1.80), 5, 10, "staff-1")
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	if item.Status != StatusLowStock {
		t.Fatalf("expected low-stock, got %s", item.Status)
	}
	if item.UpdatedBy != "staff-1" || item.LastUpdated.IsZero() {
		t.Fatalf("audit fields not set: %+v", item)
	}
}

func TestItemValidate(t *testing.T) {
	base := func() *Item {
		return &Item{
			ID: "a", Name: "A", Category: CategoryFood,
			Price: decimal.NewFromInt(1), CostPrice: decimal.NewFromInt(1),
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid item rejected: %v", err)
	}

	bad := base()
	bad.Category = "toys"
	if err := bad.Validate(); err == nil {
		t.Fatal("unknown category accepted")
	}

	bad = base()
	bad.Price = decimal.NewFromInt(-1)
	if err := bad.Validate(); err == nil {
		t.Fatal("negative price accepted")
	}

	bad = base()
	bad.Quantity = -1
	if err := bad.Validate(); err == nil {
		t.Fatal("negative quantity accepted")
	}
}

func TestTouchRecomputesStatus(t *testing.T) {
	item := &Item{ID: "a", Name: "A", Category: CategoryFood, Quantity: 0, MinStockThreshold: 5}
	item.Touch("staff-2")
	if item.Status != StatusOutOfStock {
		t.Fatalf("expected out-of-stock, got %s", item.Status)
	}
	item.Quantity = 20
	item.Touch("staff-2")
	if item.Status != StatusInStock {
		t.Fatalf("expected in-stock, got %s", item.Status)
	}
}
