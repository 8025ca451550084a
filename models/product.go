package models

import "github.com/shopspring/decimal"

type Product struct {
	ProductID   int             `json:"ProductID,omitempty"`
	ProductName string          `json:"ProductName"`
	UnitPrice   decimal.Decimal `json:"UnitPrice"`
	Unit        string          `json:"Unit,omitempty"`
	ImageURL    string          `json:"ImageUrl,omitempty"`
	CreatedBy   string          `json:"CreatedBy,omitempty"`
	CreatedDate string          `json:"CreatedDate,omitempty"`
	UpdatedBy   string          `json:"UpdatedBy,omitempty"`
	UpdatedDate string          `json:"UpdatedDate,omitempty"`
}
