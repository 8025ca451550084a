package models

type Provider struct {
	ProviderID      int    `json:"ProviderID,omitempty"`
	ProviderName    string `json:"ProviderName"`
	ProviderAddress string `json:"ProviderAddress,omitempty"`
	ProviderPhone   string `json:"ProviderPhone,omitempty"`
	CreatedBy       string `json:"CreatedBy,omitempty"`
	CreatedDate     string `json:"CreatedDate,omitempty"`
	UpdatedBy       string `json:"UpdatedBy,omitempty"`
	UpdatedDate     string `json:"UpdatedDate,omitempty"`
}
