package odata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListSendsQueryAndToken(t *testing.T) {
	var gotFilter, gotTop, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/odata/Customers" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotFilter = r.URL.Query().Get("$filter")
		gotTop = r.URL.Query().Get("$top")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"@odata.count": 1,
			"value":        []testEntity{{ID: 1, Name: "Acme"}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, func() string { return "tok-123" })
	res, err := List[testEntity](context.Background(), client, "Customers", Query{
		SearchTerm:  "acme",
		SearchField: "CustomerName",
		Page:        1,
		PageSize:    5,
		Count:       true,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(res.Items) != 1 || res.TotalCount != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if gotFilter != "contains(tolower(CustomerName), 'acme')" {
		t.Errorf("unexpected filter %q", gotFilter)
	}
	if gotTop != "5" {
		t.Errorf("unexpected $top %q", gotTop)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("unexpected Authorization header %q", gotAuth)
	}
}

func TestUpdateAcceptsNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	entity := testEntity{ID: 7, Name: "updated"}
	got, err := Update(context.Background(), client, "Customers", 7, entity)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got != entity {
		t.Errorf("204 response should echo the submitted entity, got %+v", got)
	}
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	_, err := List[testEntity](context.Background(), client, "Customers", Query{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestErrorPrecedence(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "field errors win",
			body: `{"message":"ignored","errors":{"Quantity":["must be positive"]}}`,
			want: "Quantity: must be positive",
		},
		{
			name: "single message",
			body: `{"message":"quantity out of range"}`,
			want: "quantity out of range",
		},
		{
			name: "generic fallback",
			body: `{}`,
			want: "An unexpected error occurred. Please try again.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, nil, nil)
			_, err := Create(context.Background(), client, "Deliveries", testEntity{})
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if apiErr.UserMessage() != tt.want {
				t.Errorf("expected message %q, got %q", tt.want, apiErr.UserMessage())
			}
		})
	}
}

func TestDeleteTreatsNoContentAsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	if err := client.Delete(context.Background(), "Customers", 4); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}
