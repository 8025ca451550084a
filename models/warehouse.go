package models

type Warehouse struct {
	WarehouseID      int    `json:"WarehouseID,omitempty"`
	WarehouseName    string `json:"WarehouseName"`
	WarehouseAddress string `json:"WarehouseAddress,omitempty"`
	CreatedBy        string `json:"CreatedBy,omitempty"`
	CreatedDate      string `json:"CreatedDate,omitempty"`
	UpdatedBy        string `json:"UpdatedBy,omitempty"`
	UpdatedDate      string `json:"UpdatedDate,omitempty"`
}

type Location struct {
	LocationID   int    `json:"LocationID,omitempty"`
	LocationName string `json:"LocationName"`
	WarehouseID  int    `json:"WarehouseID"`
	CreatedBy    string `json:"CreatedBy,omitempty"`
	CreatedDate  string `json:"CreatedDate,omitempty"`
	UpdatedBy    string `json:"UpdatedBy,omitempty"`
	UpdatedDate  string `json:"UpdatedDate,omitempty"`
}
