package fakeapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsAllowedOrigin(t *testing.T) {
	allowed := []string{"https://console.example.com", "http://localhost:5173"}

	cases := []struct {
		origin string
		want   bool
	}{
		{"https://console.example.com", true},
		{"http://localhost:5173", true},
		{"https://evil.example.com", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isAllowedOrigin(tc.origin, allowed); got != tc.want {
			t.Errorf("isAllowedOrigin(%q) = %v, want %v", tc.origin, got, tc.want)
		}
	}
}

func TestAllowedOriginsFromEnv(t *testing.T) {
	t.Setenv("INVENTORY_CORS_ORIGINS", "https://a.example.com,https://b.example.com")
	origins := allowedOrigins()
	if len(origins) != 2 || origins[0] != "https://a.example.com" {
		t.Errorf("origins = %v", origins)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := enableCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight should not reach the inner handler")
	}))

	req := httptest.NewRequest("OPTIONS", "/odata/Customers", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}
	if rr.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("Allow-Methods header missing")
	}
}

func TestCORSDoesNotReflectUnknownOrigin(t *testing.T) {
	handler := enableCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/odata/Customers", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got == "https://evil.example.com" {
		t.Error("unknown origin reflected in Access-Control-Allow-Origin")
	}
}
