package resources

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mylpd15/inventory-console/editor"
	"github.com/mylpd15/inventory-console/models"
	"github.com/mylpd15/inventory-console/odata"
)

type recordedCall struct {
	method string
	path   string
	body   string
}

func recordingServer(calls *[]recordedCall) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*calls = append(*calls, recordedCall{method: r.Method, path: r.URL.Path, body: string(body)})
		if r.URL.Path == "/odata/$batch" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestSubmitDeliveryParentFirstThenChangeset(t *testing.T) {
	var calls []recordedCall
	server := recordingServer(&calls)
	defer server.Close()

	client := odata.NewClient(server.URL, nil, nil)
	ed := editor.New(models.StatusPending, []models.DeliveryDetail{
		{DeliveryDetailID: 7, ProductID: 1, DeliveryQuantity: 2},
	}, func(d models.DeliveryDetail) int { return d.DeliveryDetailID })
	ed.Add(models.DeliveryDetail{ProductID: 3, DeliveryQuantity: 1, ExpectedDate: "2026-09-20"})
	ed.Update(0, func(d *models.DeliveryDetail) { d.DeliveryQuantity = 5 })

	delivery := models.Delivery{DeliveryID: 12, SalesDate: "2026-09-01", CustomerID: 4, Status: models.StatusPending}
	if err := SubmitDelivery(context.Background(), client, delivery, ed); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("expected parent update + one batch, got %d calls: %+v", len(calls), calls)
	}
	if calls[0].method != http.MethodPut || calls[0].path != "/odata/Deliveries/12" {
		t.Errorf("first call should update the parent, got %+v", calls[0])
	}
	if strings.Contains(calls[0].body, "DeliveryDetails") {
		t.Error("line items must not travel on the parent update")
	}
	if calls[1].path != "/odata/$batch" {
		t.Errorf("second call should be the changeset, got %+v", calls[1])
	}
	// Creates come before updates inside the changeset, and the create
	// carries the parent key.
	batch := calls[1].body
	post := strings.Index(batch, "POST /odata/DeliveryDetails")
	put := strings.Index(batch, "PUT /odata/DeliveryDetails/7")
	if post == -1 || put == -1 || post > put {
		t.Errorf("expected create before update in changeset:\n%s", batch)
	}
	if !strings.Contains(batch, `"DeliveryID":12`) {
		t.Errorf("created detail should carry the parent id:\n%s", batch)
	}
}

func TestSubmitDeliverySkipsChildrenWhenNotPending(t *testing.T) {
	var calls []recordedCall
	server := recordingServer(&calls)
	defer server.Close()

	client := odata.NewClient(server.URL, nil, nil)
	// The editor was opened while the parent was still pending, then the
	// actor set the status to Shipped in the same form.
	ed := editor.New(models.StatusPending, []models.DeliveryDetail{
		{DeliveryDetailID: 7, ProductID: 1, DeliveryQuantity: 2},
	}, func(d models.DeliveryDetail) int { return d.DeliveryDetailID })
	ed.Update(0, func(d *models.DeliveryDetail) { d.DeliveryQuantity = 9 })

	delivery := models.Delivery{DeliveryID: 12, CustomerID: 4, Status: models.StatusShipped}
	if err := SubmitDelivery(context.Background(), client, delivery, ed); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("expected only the parent update, got %+v", calls)
	}
}

func TestSubmitOrderDeletesTravelInChangeset(t *testing.T) {
	var calls []recordedCall
	server := recordingServer(&calls)
	defer server.Close()

	client := odata.NewClient(server.URL, nil, nil)
	ed := editor.New(models.StatusPending, []models.OrderDetail{
		{OrderDetailID: 31, ProductID: 1, OrderQuantity: 4},
	}, func(d models.OrderDetail) int { return d.OrderDetailID })
	ed.Remove(0)

	order := models.Order{OrderID: 3, ProviderID: 1, WarehouseID: 2, Status: models.StatusPending,
		Provider: &models.Provider{ProviderID: 1}}
	if err := SubmitOrder(context.Background(), client, order, ed); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("expected parent update + batch, got %+v", calls)
	}
	if strings.Contains(calls[0].body, "Provider") && strings.Contains(calls[0].body, "ProviderName") {
		t.Error("expanded navigation properties must not travel on the parent update")
	}
	if !strings.Contains(calls[1].body, "DELETE /odata/OrderDetails/31") {
		t.Errorf("expected the delete inside the changeset:\n%s", calls[1].body)
	}
}

func TestBindingDefaultsApplied(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value":[]}`))
	}))
	defer server.Close()

	client := odata.NewClient(server.URL, nil, nil)
	orders := Orders(client)
	_, err := orders.Query(context.Background(), odata.Query{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !strings.Contains(gotQuery, "Provider%2CWarehouse%2COrderDetails") && !strings.Contains(gotQuery, "Provider,Warehouse,OrderDetails") {
		t.Errorf("expected default expand on orders, got %q", gotQuery)
	}

	customers := Customers(client)
	_, err = customers.Query(context.Background(), odata.Query{SearchTerm: "acme", Page: 1, PageSize: 5})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !strings.Contains(gotQuery, "CustomerName") {
		t.Errorf("expected default search field on customers, got %q", gotQuery)
	}
}
