package models

type Customer struct {
	CustomerID      int    `json:"CustomerID,omitempty"`
	CustomerName    string `json:"CustomerName"`
	CustomerAddress string `json:"CustomerAddress"`
	CreatedBy       string `json:"CreatedBy,omitempty"`
	CreatedDate     string `json:"CreatedDate,omitempty"`
	UpdatedBy       string `json:"UpdatedBy,omitempty"`
	UpdatedDate     string `json:"UpdatedDate,omitempty"`
}
