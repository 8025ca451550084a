package fakeapi

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mylpd15/inventory-console/models"
)

// Seed credentials for the demo instance.
const (
	SeedAdminUsername   = "admin"
	SeedAdminPassword   = "Admin#123"
	SeedManagerUsername = "manager"
	SeedManagerPassword = "Manager#123"
	SeedAuditorUsername = "auditor"
	SeedAuditorPassword = "Auditor#123"
)

func (s *Server) upsertUserDoc(user models.AppUser) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.storeDoc("UsersOdata", user.ID, doc)
}

func (s *Server) seedUser(id, username, password, email, name string, role models.UserRole) error {
	_, err := s.db.Exec(
		"INSERT INTO users (id, username, password_hash, email, display_name, role, disabled) VALUES (?, ?, ?, ?, ?, ?, 0)",
		id, username, hashPassword(password), email, name, role)
	if err != nil {
		return err
	}
	return s.upsertUserDoc(models.AppUser{
		ID: id, Username: username, Email: email, DisplayName: name, UserRole: role,
	})
}

func (s *Server) seed() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if err := s.seedUser("1", SeedAdminUsername, SeedAdminPassword, "admin@warehouse.test", "Administrator", models.RoleAdmin); err != nil {
		return err
	}
	if err := s.seedUser("2", SeedManagerUsername, SeedManagerPassword, "manager@warehouse.test", "Warehouse Manager", models.RoleWarehouseManager); err != nil {
		return err
	}
	if err := s.seedUser("3", SeedAuditorUsername, SeedAuditorPassword, "auditor@warehouse.test", "Auditor", models.RoleAuditor); err != nil {
		return err
	}

	return s.seedResources()
}

func storeEntity(s *Server, set string, key int, entity interface{}) error {
	raw, err := json.Marshal(entity)
	if err != nil {
		return err
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.storeDoc(set, strconv.Itoa(key), doc)
}

func (s *Server) seedResources() error {
	customers := []models.Customer{
		{CustomerID: 1, CustomerName: "Northwind Traders", CustomerAddress: "12 Harbor St"},
		{CustomerID: 2, CustomerName: "Contoso Retail", CustomerAddress: "44 Market Ave"},
		{CustomerID: 3, CustomerName: "Fabrikam Stores", CustomerAddress: "7 Mill Road"},
	}
	for _, c := range customers {
		if err := storeEntity(s, "Customers", c.CustomerID, c); err != nil {
			return err
		}
	}

	products := []models.Product{
		{ProductID: 1, ProductName: "Standing Desk", UnitPrice: decimal.NewFromInt(250), Unit: "piece"},
		{ProductID: 2, ProductName: "Office Chair", UnitPrice: decimal.NewFromInt(120), Unit: "piece"},
		{ProductID: 3, ProductName: "Monitor Arm", UnitPrice: decimal.NewFromFloat(39.90), Unit: "piece"},
	}
	for _, p := range products {
		if err := storeEntity(s, "Products", p.ProductID, p); err != nil {
			return err
		}
	}

	providers := []models.Provider{
		{ProviderID: 1, ProviderName: "Acme Supply", ProviderAddress: "1 Factory Lane"},
		{ProviderID: 2, ProviderName: "Globex Logistics", ProviderAddress: "9 Dockside"},
	}
	for _, p := range providers {
		if err := storeEntity(s, "Providers", p.ProviderID, p); err != nil {
			return err
		}
	}

	warehouses := []models.Warehouse{
		{WarehouseID: 1, WarehouseName: "Central", WarehouseAddress: "100 Depot Way"},
		{WarehouseID: 2, WarehouseName: "North", WarehouseAddress: "3 Cold Storage Rd"},
	}
	for _, wh := range warehouses {
		if err := storeEntity(s, "Warehouses", wh.WarehouseID, wh); err != nil {
			return err
		}
	}

	locations := []models.Location{
		{LocationID: 1, LocationName: "A-01", WarehouseID: 1},
		{LocationID: 2, LocationName: "A-02", WarehouseID: 1},
		{LocationID: 3, LocationName: "B-01", WarehouseID: 2},
	}
	for _, l := range locations {
		if err := storeEntity(s, "Locations", l.LocationID, l); err != nil {
			return err
		}
	}

	inventories := []models.InventoryItem{
		{InventoryID: 1, ProductID: 1, LocationID: 1, Quantity: 40},
		{InventoryID: 2, ProductID: 2, LocationID: 2, Quantity: 15},
		{InventoryID: 3, ProductID: 3, LocationID: 3, Quantity: 220},
	}
	for _, inv := range inventories {
		if err := storeEntity(s, "Inventories", inv.InventoryID, inv); err != nil {
			return err
		}
	}

	deliveries := []models.Delivery{
		{DeliveryID: 1, SalesDate: "2026-08-20", CustomerID: 1, Status: models.StatusPending},
		{DeliveryID: 2, SalesDate: "2026-08-14", CustomerID: 2, Status: models.StatusShipped},
	}
	for _, d := range deliveries {
		if err := storeEntity(s, "Deliveries", d.DeliveryID, d); err != nil {
			return err
		}
	}
	details := []models.DeliveryDetail{
		{DeliveryDetailID: 1, DeliveryID: 1, ProductID: 1, DeliveryQuantity: 4, ExpectedDate: "2026-09-01"},
		{DeliveryDetailID: 2, DeliveryID: 1, ProductID: 3, DeliveryQuantity: 10, ExpectedDate: "2026-09-01"},
		{DeliveryDetailID: 3, DeliveryID: 2, ProductID: 2, DeliveryQuantity: 2, ExpectedDate: "2026-08-25"},
	}
	for _, d := range details {
		if err := storeEntity(s, "DeliveryDetails", d.DeliveryDetailID, d); err != nil {
			return err
		}
	}

	orders := []models.Order{
		{OrderID: 1, OrderDate: "2026-08-10", ProviderID: 1, WarehouseID: 1, Status: models.StatusPending},
	}
	for _, o := range orders {
		if err := storeEntity(s, "Orders", o.OrderID, o); err != nil {
			return err
		}
	}
	orderDetails := []models.OrderDetail{
		{OrderDetailID: 1, OrderID: 1, ProductID: 2, OrderQuantity: 30, ExpectedDate: "2026-09-10"},
	}
	for _, d := range orderDetails {
		if err := storeEntity(s, "OrderDetails", d.OrderDetailID, d); err != nil {
			return err
		}
	}
	return nil
}
