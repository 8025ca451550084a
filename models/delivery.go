package models

import "github.com/shopspring/decimal"

type Delivery struct {
	DeliveryID      int              `json:"DeliveryID,omitempty"`
	SalesDate       string           `json:"SalesDate"`
	CustomerID      int              `json:"CustomerID"`
	Status          Status           `json:"Status"`
	CreatedBy       string           `json:"CreatedBy,omitempty"`
	CreatedDate     string           `json:"CreatedDate,omitempty"`
	UpdatedBy       string           `json:"UpdatedBy,omitempty"`
	UpdatedDate     string           `json:"UpdatedDate,omitempty"`
	DeliveryDetails []DeliveryDetail `json:"DeliveryDetails,omitempty"`
}

type DeliveryDetail struct {
	DeliveryDetailID int    `json:"DeliveryDetailID,omitempty"`
	DeliveryID       int    `json:"DeliveryID,omitempty"`
	ProductID        int    `json:"ProductID"`
	DeliveryQuantity int    `json:"DeliveryQuantity"`
	ExpectedDate     string `json:"ExpectedDate"`
	ActualDate       string `json:"ActualDate,omitempty"`
}

// DeliveryTotal sums quantity * unit price over the delivery's line items.
// Products missing from the price table contribute nothing.
func DeliveryTotal(details []DeliveryDetail, prices map[int]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, d := range details {
		price, ok := prices[d.ProductID]
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(d.DeliveryQuantity))))
	}
	return total
}
