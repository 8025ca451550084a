package fakeapi

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/mylpd15/inventory-console/controller"
	"github.com/mylpd15/inventory-console/editor"
	"github.com/mylpd15/inventory-console/form"
	"github.com/mylpd15/inventory-console/models"
	"github.com/mylpd15/inventory-console/odata"
	"github.com/mylpd15/inventory-console/resources"
	"github.com/mylpd15/inventory-console/session"
)

func newTestBackend(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func login(t *testing.T, baseURL, username, password string) (*session.Manager, *odata.Client) {
	t.Helper()
	store := session.NewMemoryStore()
	tokens := session.NewManager(nil, store)
	client := odata.NewClient(baseURL, nil, tokens.TokenSource())
	mgr := session.NewManager(client, store)

	if _, err := mgr.Login(context.Background(), models.UserCredential{Username: username, Password: password}); err != nil {
		t.Fatalf("Login(%s): %v", username, err)
	}
	return mgr, client
}

func TestLoginAndWhoami(t *testing.T) {
	_, ts := newTestBackend(t)
	mgr, _ := login(t, ts.URL, SeedAdminUsername, SeedAdminPassword)

	user := mgr.Current()
	if user == nil {
		t.Fatal("Current() = nil after login")
	}
	if user.UserRole != models.RoleAdmin {
		t.Errorf("UserRole = %v, want Admin", user.UserRole)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	_, ts := newTestBackend(t)
	mgr := session.NewManager(odata.NewClient(ts.URL, nil, nil), session.NewMemoryStore())

	_, err := mgr.Login(context.Background(), models.UserCredential{Username: SeedAdminUsername, Password: "wrong"})
	var apiErr *odata.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *odata.Error", err)
	}
	if apiErr.Message != "Invalid username or password" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestODataRequiresToken(t *testing.T) {
	_, ts := newTestBackend(t)
	client := odata.NewClient(ts.URL, nil, nil)

	_, err := odata.List[models.Customer](context.Background(), client, "Customers", odata.Query{})
	if !errors.Is(err, odata.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestListSearchAndPaging(t *testing.T) {
	_, ts := newTestBackend(t)
	_, client := login(t, ts.URL, SeedAdminUsername, SeedAdminPassword)
	ctx := context.Background()

	res, err := odata.List[models.Customer](ctx, client, "Customers", odata.Query{
		Page: 1, PageSize: 2, Count: true,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("page 1 has %d items, want 2", len(res.Items))
	}
	if res.TotalCount != 3 || !res.Counted {
		t.Errorf("TotalCount = %d (counted %v), want 3", res.TotalCount, res.Counted)
	}

	res, err = odata.List[models.Customer](ctx, client, "Customers", odata.Query{
		SearchTerm: "CONTOSO", SearchField: "CustomerName", Page: 1, PageSize: 5, Count: true,
	})
	if err != nil {
		t.Fatalf("List with search: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].CustomerName != "Contoso Retail" {
		t.Fatalf("search results = %+v", res.Items)
	}
}

func TestCreateUpdateDeleteCustomer(t *testing.T) {
	_, ts := newTestBackend(t)
	_, client := login(t, ts.URL, SeedAdminUsername, SeedAdminPassword)
	ctx := context.Background()

	created, err := odata.Create(ctx, client, "Customers", models.Customer{
		CustomerName: "Initech", CustomerAddress: "99 Basement Level",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.CustomerID == 0 {
		t.Fatal("created customer has no key")
	}

	created.CustomerAddress = "1 Penthouse"
	if _, err := odata.Update(ctx, client, "Customers", created.CustomerID, created); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := odata.Get[models.Customer](ctx, client, "Customers", created.CustomerID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CustomerAddress != "1 Penthouse" {
		t.Errorf("address = %q after update", got.CustomerAddress)
	}

	if err := client.Delete(ctx, "Customers", created.CustomerID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	res, err := odata.List[models.Customer](ctx, client, "Customers", odata.Query{Count: true})
	if err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	for _, c := range res.Items {
		if c.CustomerID == created.CustomerID {
			t.Fatalf("deleted customer %d still listed", created.CustomerID)
		}
	}
}

func TestDeleteLastPageClampsThroughController(t *testing.T) {
	_, ts := newTestBackend(t)
	sess, client := login(t, ts.URL, SeedAdminUsername, SeedAdminPassword)
	ctx := context.Background()

	list := controller.NewList[models.Customer](resources.Customers(client), sess, controller.LogNotifier{}, 2)
	list.Load(ctx)
	list.GoToPage(ctx, 2)
	if len(list.Items()) != 1 {
		t.Fatalf("page 2 has %d items, want the last seeded customer", len(list.Items()))
	}

	victim := list.Items()[0]
	if !list.Delete(ctx, victim) {
		t.Fatal("Delete returned false")
	}
	if list.Pager().Page() != 1 {
		t.Errorf("page = %d after deleting the last page, want 1", list.Pager().Page())
	}
	for _, c := range list.Items() {
		if c.CustomerID == victim.CustomerID {
			t.Fatalf("deleted customer %d reappeared", victim.CustomerID)
		}
	}
}

func TestSignupValidationErrors(t *testing.T) {
	_, ts := newTestBackend(t)
	mgr := session.NewManager(odata.NewClient(ts.URL, nil, nil), session.NewMemoryStore())

	_, err := mgr.Signup(context.Background(), models.CreateUser{
		Username: "abc", Password: "short", Email: "not-an-email", DisplayName: "X",
	})
	var apiErr *odata.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *odata.Error", err)
	}
	fields := apiErr.FieldErrors()
	for _, field := range []string{"Username", "Password", "Email"} {
		if len(fields[field]) == 0 {
			t.Errorf("no validation message for %s: %v", field, fields)
		}
	}
}

func TestOTPLoginFlow(t *testing.T) {
	srv, ts := newTestBackend(t)
	mgr := session.NewManager(odata.NewClient(ts.URL, nil, nil), session.NewMemoryStore())
	ctx := context.Background()

	email := "manager@warehouse.test"
	if err := mgr.SendOTP(ctx, models.SendOTP{Email: email}); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}

	var code string
	if err := srv.db.QueryRow("SELECT code FROM otps WHERE email = ?", email).Scan(&code); err != nil {
		t.Fatalf("reading issued code: %v", err)
	}

	if err := mgr.VerifyOTP(ctx, models.VerifyOTP{Email: email, OTP: "000000x"}); err == nil {
		t.Error("VerifyOTP accepted a wrong code")
	}
	if err := mgr.VerifyOTP(ctx, models.VerifyOTP{Email: email, OTP: code}); err != nil {
		t.Errorf("VerifyOTP: %v", err)
	}

	user, err := mgr.OTPLogin(ctx, models.VerifyOTP{Email: email, OTP: code})
	if err != nil {
		t.Fatalf("OTPLogin: %v", err)
	}
	if user.Username != SeedManagerUsername {
		t.Errorf("logged in as %q", user.Username)
	}

	// The code is consumed on login.
	if _, err := mgr.OTPLogin(ctx, models.VerifyOTP{Email: email, OTP: code}); err == nil {
		t.Error("OTPLogin accepted a consumed code")
	}
}

func TestChangePassword(t *testing.T) {
	_, ts := newTestBackend(t)
	mgr, _ := login(t, ts.URL, SeedAuditorUsername, SeedAuditorPassword)
	ctx := context.Background()

	err := mgr.ChangePassword(ctx, models.ChangePassword{OldPassword: "nope", NewPassword: "Fresh#123"})
	var apiErr *odata.Error
	if !errors.As(err, &apiErr) || apiErr.Message != "The current password is incorrect" {
		t.Fatalf("err = %v", err)
	}

	if err := mgr.ChangePassword(ctx, models.ChangePassword{
		OldPassword: SeedAuditorPassword, NewPassword: "Fresh#123",
	}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	relog := session.NewManager(odata.NewClient(ts.URL, nil, nil), session.NewMemoryStore())
	if _, err := relog.Login(ctx, models.UserCredential{Username: SeedAuditorUsername, Password: "Fresh#123"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestExpandNestsChildrenAndRelations(t *testing.T) {
	_, ts := newTestBackend(t)
	_, client := login(t, ts.URL, SeedAdminUsername, SeedAdminPassword)
	ctx := context.Background()

	res, err := odata.List[models.Delivery](ctx, client, "Deliveries", odata.Query{Expand: "DeliveryDetails"})
	if err != nil {
		t.Fatalf("List deliveries: %v", err)
	}
	for _, d := range res.Items {
		if d.DeliveryID == 1 && len(d.DeliveryDetails) != 2 {
			t.Errorf("delivery 1 has %d expanded details, want 2", len(d.DeliveryDetails))
		}
	}

	orders, err := odata.List[models.Order](ctx, client, "Orders", odata.Query{Expand: "Provider,Warehouse,OrderDetails"})
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}
	if len(orders.Items) != 1 {
		t.Fatalf("got %d orders", len(orders.Items))
	}
	o := orders.Items[0]
	if o.Provider == nil || o.Provider.ProviderName != "Acme Supply" {
		t.Errorf("Provider not expanded: %+v", o.Provider)
	}
	if o.Warehouse == nil || o.Warehouse.WarehouseName != "Central" {
		t.Errorf("Warehouse not expanded: %+v", o.Warehouse)
	}
	if len(o.OrderDetails) != 1 {
		t.Errorf("OrderDetails not expanded: %+v", o.OrderDetails)
	}
}

func TestBatchChangesetIsAtomic(t *testing.T) {
	_, ts := newTestBackend(t)
	_, client := login(t, ts.URL, SeedAdminUsername, SeedAdminPassword)
	ctx := context.Background()

	details, err := odata.List[models.DeliveryDetail](ctx, client, "DeliveryDetails", odata.Query{})
	if err != nil {
		t.Fatalf("List details: %v", err)
	}

	// One valid create plus an update against a key that does not exist; the
	// whole changeset must roll back.
	ops := []odata.ChangeOp{
		{Method: "POST", Path: "/odata/DeliveryDetails", Body: models.DeliveryDetail{DeliveryID: 1, ProductID: 2, DeliveryQuantity: 1, ExpectedDate: "2026-09-15"}},
		{Method: "PUT", Path: "/odata/DeliveryDetails/9999", Body: models.DeliveryDetail{DeliveryDetailID: 9999, DeliveryID: 1, ProductID: 1, DeliveryQuantity: 1, ExpectedDate: "2026-09-15"}},
	}
	if err := client.SubmitChangeset(ctx, ops); err == nil {
		t.Fatal("SubmitChangeset succeeded with a failing operation")
	}

	after, err := odata.List[models.DeliveryDetail](ctx, client, "DeliveryDetails", odata.Query{})
	if err != nil {
		t.Fatalf("List after failed changeset: %v", err)
	}
	if len(after.Items) != len(details.Items) {
		t.Errorf("detail count = %d after rollback, want %d", len(after.Items), len(details.Items))
	}
}

func TestSubmitDeliveryRoundTrip(t *testing.T) {
	_, ts := newTestBackend(t)
	_, client := login(t, ts.URL, SeedAdminUsername, SeedAdminPassword)
	ctx := context.Background()

	delivery, err := odata.Get[models.Delivery](ctx, client, "Deliveries", 1)
	if err != nil {
		t.Fatalf("Get delivery: %v", err)
	}
	details, err := odata.List[models.DeliveryDetail](ctx, client, "DeliveryDetails", odata.Query{})
	if err != nil {
		t.Fatalf("List details: %v", err)
	}
	var mine []models.DeliveryDetail
	for _, d := range details.Items {
		if d.DeliveryID == 1 {
			mine = append(mine, d)
		}
	}

	ed := editor.New(delivery.Status, mine, func(d models.DeliveryDetail) int { return d.DeliveryDetailID })
	ed.Add(models.DeliveryDetail{ProductID: 2, DeliveryQuantity: 5, ExpectedDate: "2026-09-20"})
	ed.Update(0, func(d *models.DeliveryDetail) { d.DeliveryQuantity = 9 })

	if err := resources.SubmitDelivery(ctx, client, delivery, ed); err != nil {
		t.Fatalf("SubmitDelivery: %v", err)
	}

	// Re-expand through the list endpoint.
	res, err := odata.List[models.Delivery](ctx, client, "Deliveries", odata.Query{
		Expand: "DeliveryDetails", StatusField: "DeliveryID", StatusFilter: []int{1},
	})
	if err != nil {
		t.Fatalf("List after submit: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("got %d deliveries", len(res.Items))
	}
	got := res.Items[0]
	if len(got.DeliveryDetails) != 3 {
		t.Fatalf("delivery 1 has %d details after submit, want 3", len(got.DeliveryDetails))
	}
	for _, d := range got.DeliveryDetails {
		if d.DeliveryDetailID == 1 && d.DeliveryQuantity != 9 {
			t.Errorf("detail 1 quantity = %d, want 9", d.DeliveryQuantity)
		}
	}
}

func TestDisabledAccountCannotLogin(t *testing.T) {
	_, ts := newTestBackend(t)
	_, client := login(t, ts.URL, SeedAdminUsername, SeedAdminPassword)
	ctx := context.Background()

	auditor, err := odata.Get[models.AppUser](ctx, client, "UsersOdata", "3")
	if err != nil {
		t.Fatalf("Get auditor: %v", err)
	}
	auditor.IsDisabled = true
	if _, err := odata.Update(ctx, client, "UsersOdata", auditor.ID, auditor); err != nil {
		t.Fatalf("Update auditor: %v", err)
	}

	mgr := session.NewManager(odata.NewClient(ts.URL, nil, nil), session.NewMemoryStore())
	_, err = mgr.Login(ctx, models.UserCredential{Username: SeedAuditorUsername, Password: SeedAuditorPassword})
	var apiErr *odata.Error
	if !errors.As(err, &apiErr) || apiErr.Message != "This account has been disabled" {
		t.Fatalf("err = %v", err)
	}
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(msg string) {
	n.messages = append(n.messages, msg)
}

func TestSignupFormCycle(t *testing.T) {
	_, ts := newTestBackend(t)
	ctx := context.Background()

	store := session.NewMemoryStore()
	tokens := session.NewManager(nil, store)
	client := odata.NewClient(ts.URL, nil, tokens.TokenSource())
	mgr := session.NewManager(client, store)

	notifier := &recordingNotifier{}
	f := form.New(notifier, nil)

	// Client-side validation blocks the submission before any request.
	reached := false
	ok := f.Submit(ctx, func(errs form.Errors) {
		form.Username(errs, "Username", "abc")
		form.Password(errs, "Password", "weak")
	}, func(ctx context.Context) error {
		reached = true
		return nil
	})
	if ok || reached {
		t.Fatal("invalid input must not reach the backend")
	}
	if len(notifier.messages) == 0 {
		t.Error("validation messages should be surfaced")
	}

	// A valid submission registers the account and logs it in.
	dto := models.CreateUser{
		Username:    "newstaff",
		Password:    "Staff#123",
		Email:       "newstaff@warehouse.test",
		DisplayName: "New Staff",
		UserRole:    models.RoleSalesStaff,
	}
	refetched := false
	f = form.New(notifier, func() { refetched = true })
	ok = f.Submit(ctx, func(errs form.Errors) {
		form.Username(errs, "Username", dto.Username)
		form.Password(errs, "Password", dto.Password)
		form.Email(errs, "Email", dto.Email)
		form.Required(errs, "DisplayName", dto.DisplayName)
	}, func(ctx context.Context) error {
		_, err := mgr.Signup(ctx, dto)
		return err
	})
	if !ok || !refetched {
		t.Fatalf("signup through the form failed: %v", notifier.messages)
	}
	if user := mgr.Current(); user == nil || user.Username != "newstaff" {
		t.Errorf("Current() = %+v, want the new account", user)
	}

	// A duplicate username comes back as the backend's message verbatim.
	notifier.messages = nil
	other := session.NewManager(odata.NewClient(ts.URL, nil, nil), session.NewMemoryStore())
	ok = form.New(notifier, nil).Submit(ctx, nil, func(ctx context.Context) error {
		_, err := other.Signup(ctx, dto)
		return err
	})
	if ok {
		t.Fatal("duplicate signup should fail")
	}
	if len(notifier.messages) != 1 || notifier.messages[0] != "Username is already taken" {
		t.Errorf("messages = %v", notifier.messages)
	}
}
