package models

// UserRole is the numeric role encoding shared with the backend.
// The integer values are part of the wire contract and must round-trip exactly.
type UserRole int

const (
	RoleAdmin            UserRole = 1
	RoleWarehouseManager UserRole = 2
	RoleWarehouseStaff   UserRole = 3
	RoleSalesStaff       UserRole = 4
	RoleDeliveryStaff    UserRole = 5
	RoleAccountant       UserRole = 6
	RoleAuditor          UserRole = 7
)

var roleNames = map[UserRole]string{
	RoleAdmin:            "Admin",
	RoleWarehouseManager: "WarehouseManager",
	RoleWarehouseStaff:   "WarehouseStaff",
	RoleSalesStaff:       "SalesStaff",
	RoleDeliveryStaff:    "DeliveryStaff",
	RoleAccountant:       "Accountant",
	RoleAuditor:          "Auditor",
}

// String returns the role name, or "Unknown" for values outside the enumeration.
func (r UserRole) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether the role is one of the seven defined values.
func (r UserRole) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// AllRoles lists every defined role in wire order.
func AllRoles() []UserRole {
	return []UserRole{
		RoleAdmin,
		RoleWarehouseManager,
		RoleWarehouseStaff,
		RoleSalesStaff,
		RoleDeliveryStaff,
		RoleAccountant,
		RoleAuditor,
	}
}

// Section identifies a top-level navigation area of the console.
type Section string

const (
	SectionDashboard   Section = "dashboard"
	SectionCustomers   Section = "customers"
	SectionDeliveries  Section = "deliveries"
	SectionInventory   Section = "inventory"
	SectionSales       Section = "sales"
	SectionProducts    Section = "products"
	SectionOrders      Section = "orders"
	SectionProviders   Section = "providers"
	SectionWarehouses  Section = "warehouses"
	SectionLocations   Section = "locations"
	SectionUsers       Section = "users"
	SectionReports     Section = "reports"
)

var allSections = []Section{
	SectionDashboard,
	SectionCustomers,
	SectionDeliveries,
	SectionInventory,
	SectionSales,
	SectionProducts,
	SectionOrders,
	SectionProviders,
	SectionWarehouses,
	SectionLocations,
	SectionUsers,
	SectionReports,
}

// sectionsByRole is the role-to-navigation lookup. Roles missing from the map
// see nothing (fail closed), which covers any role value the backend might
// send that we do not know about.
var sectionsByRole = map[UserRole][]Section{
	RoleAdmin:            allSections,
	RoleWarehouseManager: allSections,
	RoleWarehouseStaff:   {SectionDashboard, SectionCustomers, SectionDeliveries, SectionInventory},
	RoleSalesStaff:       {SectionDashboard, SectionInventory, SectionSales},
	RoleDeliveryStaff:    {SectionDashboard, SectionDeliveries},
	RoleAccountant:       {SectionDashboard, SectionInventory, SectionSales, SectionDeliveries},
	RoleAuditor:          {SectionDashboard, SectionCustomers, SectionDeliveries, SectionInventory, SectionSales},
}

// VisibleSections returns the navigation sections the role may see.
// The returned slice is a copy; callers can reorder or trim it freely.
func VisibleSections(role UserRole) []Section {
	src, ok := sectionsByRole[role]
	if !ok {
		return nil
	}
	sections := make([]Section, 0, len(src))
	for _, s := range src {
		// Reports has a second, narrower gate on top of plain visibility.
		if s == SectionReports && !CanViewReports(role) {
			continue
		}
		sections = append(sections, s)
	}
	return sections
}

// CanAccess reports whether the role may see the given section at all.
func CanAccess(role UserRole, section Section) bool {
	for _, s := range VisibleSections(role) {
		if s == section {
			return true
		}
	}
	return false
}

// CanViewReports is layered on top of section visibility: only Admin and
// WarehouseManager may open the reports section regardless of the table.
func CanViewReports(role UserRole) bool {
	return role == RoleAdmin || role == RoleWarehouseManager
}

// CanManage reports whether the role may create, edit or delete records in a
// section. Auditor is view-only everywhere; WarehouseManager matches Admin
// except for customer CRUD; the remaining staff roles are view-oriented.
func CanManage(role UserRole, section Section) bool {
	if !CanAccess(role, section) {
		return false
	}
	switch role {
	case RoleAdmin:
		return true
	case RoleWarehouseManager:
		return section != SectionCustomers
	default:
		return false
	}
}
