package models

// AppUser is the authenticated account shape returned by the auth endpoints
// and the UsersOdata entity set.
type AppUser struct {
	ID          string   `json:"Id"`
	DisplayName string   `json:"DisplayName"`
	Username    string   `json:"Username"`
	Email       string   `json:"Email"`
	IsDisabled  bool     `json:"IsDisabled"`
	UserRole    UserRole `json:"UserRole"`
}
