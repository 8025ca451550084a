package models

type InventoryItem struct {
	InventoryID int      `json:"InventoryID,omitempty"`
	ProductID   int      `json:"ProductID"`
	LocationID  int      `json:"LocationID"`
	Quantity    int      `json:"Quantity"`
	Product     *Product `json:"Product,omitempty"`
	UpdatedDate string   `json:"UpdatedDate,omitempty"`
}
