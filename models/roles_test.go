package models

import "testing"

func TestVisibleSectionsTotality(t *testing.T) {
	// Every defined role must see a non-empty set of sections.
	for _, role := range AllRoles() {
		sections := VisibleSections(role)
		if len(sections) == 0 {
			t.Errorf("role %s has no visible sections", role)
		}
		for _, s := range sections {
			if !CanAccess(role, s) {
				t.Errorf("role %s: CanAccess(%s) disagrees with VisibleSections", role, s)
			}
		}
	}
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	for _, role := range []UserRole{0, 8, 99, -1} {
		if role.Valid() {
			t.Errorf("role %d should not be valid", role)
		}
		if sections := VisibleSections(role); len(sections) != 0 {
			t.Errorf("role %d should see nothing, got %v", role, sections)
		}
		if CanManage(role, SectionCustomers) {
			t.Errorf("role %d should not manage anything", role)
		}
	}
}

func TestWarehouseStaffSections(t *testing.T) {
	got := VisibleSections(RoleWarehouseStaff)
	want := []Section{SectionDashboard, SectionCustomers, SectionDeliveries, SectionInventory}
	if len(got) != len(want) {
		t.Fatalf("expected %d sections, got %v", len(want), got)
	}
	for i, s := range want {
		if got[i] != s {
			t.Errorf("expected section %s at %d, got %s", s, i, got[i])
		}
	}
	if CanAccess(RoleWarehouseStaff, SectionReports) {
		t.Error("WarehouseStaff should not see reports")
	}
}

func TestReportsGate(t *testing.T) {
	for _, role := range AllRoles() {
		canView := CanViewReports(role)
		wantView := role == RoleAdmin || role == RoleWarehouseManager
		if canView != wantView {
			t.Errorf("role %s: CanViewReports = %v, want %v", role, canView, wantView)
		}
		// The reports section must never show up for roles behind the gate,
		// even for roles whose row in the table covers all sections.
		if !wantView && CanAccess(role, SectionReports) {
			t.Errorf("role %s sees reports section despite the gate", role)
		}
	}
}

func TestManageRights(t *testing.T) {
	tests := []struct {
		role    UserRole
		section Section
		want    bool
	}{
		{RoleAdmin, SectionCustomers, true},
		{RoleAdmin, SectionOrders, true},
		{RoleWarehouseManager, SectionCustomers, false}, // same as Admin except customer CRUD
		{RoleWarehouseManager, SectionOrders, true},
		{RoleAuditor, SectionCustomers, false}, // view-only across the board
		{RoleAuditor, SectionDeliveries, false},
		{RoleWarehouseStaff, SectionDeliveries, false},
		{RoleSalesStaff, SectionSales, false},
	}
	for _, tt := range tests {
		if got := CanManage(tt.role, tt.section); got != tt.want {
			t.Errorf("CanManage(%s, %s) = %v, want %v", tt.role, tt.section, got, tt.want)
		}
	}
}

func TestRoleRoundTrip(t *testing.T) {
	names := map[UserRole]string{
		1: "Admin",
		2: "WarehouseManager",
		3: "WarehouseStaff",
		4: "SalesStaff",
		5: "DeliveryStaff",
		6: "Accountant",
		7: "Auditor",
	}
	for value, name := range names {
		if value.String() != name {
			t.Errorf("role %d: expected name %s, got %s", value, name, value.String())
		}
	}
}
