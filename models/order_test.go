package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderTotal(t *testing.T) {
	prices := map[int]decimal.Decimal{
		1: decimal.RequireFromString("19.99"),
		2: decimal.RequireFromString("5.50"),
	}
	details := []OrderDetail{
		{ProductID: 1, OrderQuantity: 2},
		{ProductID: 2, OrderQuantity: 3},
		{ProductID: 9, OrderQuantity: 100}, // no price known, skipped
	}
	total := OrderTotal(details, prices)
	want := decimal.RequireFromString("56.48")
	if !total.Equal(want) {
		t.Errorf("expected total %s, got %s", want, total)
	}
}

func TestDeliveryTotalEmpty(t *testing.T) {
	if !DeliveryTotal(nil, nil).IsZero() {
		t.Error("empty delivery should total zero")
	}
}
