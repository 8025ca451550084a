// Package resources binds each backend entity set to the generic list
// controller: collection name, console section, search field and default
// expansion in one place instead of per page.
package resources

import (
	"context"

	"github.com/mylpd15/inventory-console/models"
	"github.com/mylpd15/inventory-console/odata"
)

// Binding is one entity set exposed as a controller.Resource.
type Binding[T any] struct {
	client      *odata.Client
	entitySet   string
	section     models.Section
	searchField string
	expand      string
	key         func(T) interface{}
}

func (b *Binding[T]) Section() models.Section { return b.section }

// EntitySet returns the backend collection name.
func (b *Binding[T]) EntitySet() string { return b.entitySet }

// Key extracts the backend identity of an item.
func (b *Binding[T]) Key(item T) interface{} { return b.key(item) }

func (b *Binding[T]) Query(ctx context.Context, q odata.Query) (odata.Result[T], error) {
	if q.SearchField == "" {
		q.SearchField = b.searchField
	}
	if q.Expand == "" {
		q.Expand = b.expand
	}
	return odata.List[T](ctx, b.client, b.entitySet, q)
}

func (b *Binding[T]) Get(ctx context.Context, key interface{}) (T, error) {
	return odata.Get[T](ctx, b.client, b.entitySet, key)
}

func (b *Binding[T]) Create(ctx context.Context, item T) (T, error) {
	return odata.Create(ctx, b.client, b.entitySet, item)
}

func (b *Binding[T]) Update(ctx context.Context, item T) (T, error) {
	return odata.Update(ctx, b.client, b.entitySet, b.key(item), item)
}

func (b *Binding[T]) Delete(ctx context.Context, item T) error {
	return b.client.Delete(ctx, b.entitySet, b.key(item))
}

func Customers(client *odata.Client) *Binding[models.Customer] {
	return &Binding[models.Customer]{
		client:      client,
		entitySet:   "Customers",
		section:     models.SectionCustomers,
		searchField: "CustomerName",
		key:         func(c models.Customer) interface{} { return c.CustomerID },
	}
}

func Products(client *odata.Client) *Binding[models.Product] {
	return &Binding[models.Product]{
		client:      client,
		entitySet:   "Products",
		section:     models.SectionProducts,
		searchField: "ProductName",
		key:         func(p models.Product) interface{} { return p.ProductID },
	}
}

func Providers(client *odata.Client) *Binding[models.Provider] {
	return &Binding[models.Provider]{
		client:      client,
		entitySet:   "Providers",
		section:     models.SectionProviders,
		searchField: "ProviderName",
		key:         func(p models.Provider) interface{} { return p.ProviderID },
	}
}

func Warehouses(client *odata.Client) *Binding[models.Warehouse] {
	return &Binding[models.Warehouse]{
		client:      client,
		entitySet:   "Warehouses",
		section:     models.SectionWarehouses,
		searchField: "WarehouseName",
		key:         func(w models.Warehouse) interface{} { return w.WarehouseID },
	}
}

func Locations(client *odata.Client) *Binding[models.Location] {
	return &Binding[models.Location]{
		client:      client,
		entitySet:   "Locations",
		section:     models.SectionLocations,
		searchField: "LocationName",
		key:         func(l models.Location) interface{} { return l.LocationID },
	}
}

func Inventory(client *odata.Client) *Binding[models.InventoryItem] {
	return &Binding[models.InventoryItem]{
		client:    client,
		entitySet: "Inventories",
		section:   models.SectionInventory,
		expand:    "Product",
		key:       func(i models.InventoryItem) interface{} { return i.InventoryID },
	}
}

func Deliveries(client *odata.Client) *Binding[models.Delivery] {
	return &Binding[models.Delivery]{
		client:    client,
		entitySet: "Deliveries",
		section:   models.SectionDeliveries,
		expand:    "DeliveryDetails",
		key:       func(d models.Delivery) interface{} { return d.DeliveryID },
	}
}

func Orders(client *odata.Client) *Binding[models.Order] {
	return &Binding[models.Order]{
		client:    client,
		entitySet: "Orders",
		section:   models.SectionOrders,
		expand:    "Provider,Warehouse,OrderDetails",
		key:       func(o models.Order) interface{} { return o.OrderID },
	}
}

// Users lives under the UsersOdata entity set on the backend.
func Users(client *odata.Client) *Binding[models.AppUser] {
	return &Binding[models.AppUser]{
		client:      client,
		entitySet:   "UsersOdata",
		section:     models.SectionUsers,
		searchField: "Username",
		key:         func(u models.AppUser) interface{} { return u.ID },
	}
}
