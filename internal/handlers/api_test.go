package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	return response
}

func TestAPIHandlers_HandleRevenueStats(t *testing.T) {
	handlers := NewAPIHandlers(newTestDashboard(&stubBackend{}), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/revenue-stats", nil)
	w := httptest.NewRecorder()

	handlers.HandleRevenueStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}

	response := decodeEnvelope(t, w)
	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %v", response["data"])
	}
	if data["total_revenue"] != "$1.23M" {
		t.Errorf("total_revenue = %v, want $1.23M", data["total_revenue"])
	}
	if data["top_country"] != "United Kingdom" {
		t.Errorf("top_country = %v", data["top_country"])
	}
}

func TestAPIHandlers_HandleMonthlySales_UpstreamFailure(t *testing.T) {
	handlers := NewAPIHandlers(newTestDashboard(&stubBackend{monthlyErr: errMonthlyDown}), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/monthly-sales", nil)
	w := httptest.NewRecorder()

	handlers.HandleMonthlySales(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, w.Code)
	}

	response := decodeEnvelope(t, w)
	if success, _ := response["success"].(bool); success {
		t.Error("expected success=false")
	}
	errBody, _ := response["error"].(map[string]any)
	if errBody["code"] != "UPSTREAM_ERROR" {
		t.Errorf("error code = %v", errBody["code"])
	}
}

func TestAPIHandlers_HandleTopCustomers_Limit(t *testing.T) {
	handlers := NewAPIHandlers(newTestDashboard(&stubBackend{}), testLogger())

	tests := []struct {
		query     string
		status    int
		wantCount string
	}{
		{"", http.StatusOK, "2"},
		{"?limit=1", http.StatusOK, "1"},
		{"?limit=abc", http.StatusBadRequest, ""},
		{"?limit=0", http.StatusBadRequest, ""},
		{"?limit=1000", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/top-customers"+tt.query, nil)
			w := httptest.NewRecorder()

			handlers.HandleTopCustomers(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.wantCount == "" {
				return
			}
			data := decodeEnvelope(t, w)["data"].(map[string]any)
			if data["count"] != tt.wantCount {
				t.Errorf("count = %v, want %s", data["count"], tt.wantCount)
			}
		})
	}
}

func TestAPIHandlers_HandleTransactions(t *testing.T) {
	handlers := NewAPIHandlers(newTestDashboard(&stubBackend{}), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	w := httptest.NewRecorder()

	handlers.HandleTransactions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	data := decodeEnvelope(t, w)["data"].(map[string]any)
	rows, ok := data["rows"].([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("rows = %v", data["rows"])
	}
	row := rows[0].(map[string]any)
	if row["items"] != "7 items" || row["date"] != "12/1/2010" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestAPIHandlers_HandleSnapshot_ReportsFailedRegions(t *testing.T) {
	handlers := NewAPIHandlers(newTestDashboard(&stubBackend{monthlyErr: errMonthlyDown}), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
	w := httptest.NewRecorder()

	handlers.HandleSnapshot(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	data := decodeEnvelope(t, w)["data"].(map[string]any)
	failed, _ := data["failed"].([]any)
	if len(failed) != 1 || failed[0] != "monthly-sales" {
		t.Errorf("failed = %v, want [monthly-sales]", data["failed"])
	}
	view := data["view"].(map[string]any)
	customers := view["customers"].(map[string]any)
	if customers["count"] != "2" {
		t.Errorf("customers.count = %v", customers["count"])
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(newTestDashboard(&stubBackend{}), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handlers.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	data := decodeEnvelope(t, w)["data"].(map[string]any)
	if data["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", data["status"])
	}
}
