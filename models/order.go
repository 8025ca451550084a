package models

import "github.com/shopspring/decimal"

type Order struct {
	OrderID      int           `json:"OrderID,omitempty"`
	OrderDate    string        `json:"OrderDate"`
	ProviderID   int           `json:"ProviderID"`
	WarehouseID  int           `json:"WarehouseId"`
	Status       Status        `json:"Status"`
	CreatedBy    string        `json:"CreatedBy,omitempty"`
	CreatedDate  string        `json:"CreatedDate,omitempty"`
	UpdatedBy    string        `json:"UpdatedBy,omitempty"`
	UpdatedDate  string        `json:"UpdatedDate,omitempty"`
	Provider     *Provider     `json:"Provider,omitempty"`
	Warehouse    *Warehouse    `json:"Warehouse,omitempty"`
	OrderDetails []OrderDetail `json:"OrderDetails,omitempty"`
}

type OrderDetail struct {
	OrderDetailID int    `json:"OrderDetailID,omitempty"`
	OrderID       int    `json:"OrderID,omitempty"`
	ProductID     int    `json:"ProductID"`
	OrderQuantity int    `json:"OrderQuantity"`
	ExpectedDate  string `json:"ExpectedDate"`
}

// OrderTotal sums quantity * unit price over the order's line items.
func OrderTotal(details []OrderDetail, prices map[int]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, d := range details {
		price, ok := prices[d.ProductID]
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(d.OrderQuantity))))
	}
	return total
}
