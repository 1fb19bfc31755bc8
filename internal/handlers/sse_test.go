package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sales-dashboard/internal/errors"
)

func TestSSEHandlers_RegionRoutes(t *testing.T) {
	handlers := NewSSEHandlers(newTestDashboard(&stubBackend{}), testLogger())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    []string
	}{
		{"revenue stats", handlers.HandleRevenueStats, []string{`id="totalRevenue"`, "$1.23M", `id="topCountry"`}},
		{"monthly sales", handlers.HandleMonthlySales, []string{`id="monthlyChart"`, "data-chart", "drawChart"}},
		{"top customers", handlers.HandleTopCustomers, []string{`id="customerCount"`, `id="customerChart"`, "ID: 18102"}},
		{"transactions", handlers.HandleTransactions, []string{`id="transactionsTable"`, "7 items"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sse/x", nil)
			w := httptest.NewRecorder()

			tt.handler(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
			}
			if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
				t.Errorf("expected cache-control 'no-cache', got %q", cc)
			}

			body := w.Body.String()
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("response should contain %q", want)
				}
			}
		})
	}
}

func TestSSEHandlers_FailedRegionIsNotPatched(t *testing.T) {
	handlers := NewSSEHandlers(newTestDashboard(&stubBackend{transactionsErr: errors.Upstream(500, "locked")}), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/transactions", nil)
	w := httptest.NewRecorder()

	handlers.HandleTransactions(w, req)

	if strings.Contains(w.Body.String(), "transactionsTable") {
		t.Error("a failed load must leave the existing rows alone")
	}
}

func TestSSEHandlers_HandleRefreshAll_IsolatesFailures(t *testing.T) {
	handlers := NewSSEHandlers(newTestDashboard(&stubBackend{monthlyErr: errMonthlyDown}), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/sse/refresh-all", nil)
	w := httptest.NewRecorder()

	handlers.HandleRefreshAll(w, req)

	body := w.Body.String()
	if strings.Contains(body, `id="monthlyChart"`) {
		t.Error("failed monthly chart should not be patched")
	}
	for _, want := range []string{`id="totalRevenue"`, `id="customerCount"`, `id="transactionsTable"`, "7 items"} {
		if !strings.Contains(body, want) {
			t.Errorf("refresh should still patch %q", want)
		}
	}
}

func postRebuild(t *testing.T, handlers *SSEHandlers, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sse/rebuild", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handlers.HandleRebuild(w, req)
	return w
}

func TestSSEHandlers_HandleRebuild_Success(t *testing.T) {
	handlers := NewSSEHandlers(newTestDashboard(&stubBackend{}), testLogger())

	w := postRebuild(t, handlers, `{"confirmed":true}`)
	body := w.Body.String()

	for _, want := range []string{"Rebuilding...", "Database rebuilt successfully! Result: success", "window.location.reload()"} {
		if !strings.Contains(body, want) {
			t.Errorf("rebuild stream should contain %q", want)
		}
	}

	notify := strings.Index(body, "Database rebuilt successfully")
	reload := strings.Index(body, "window.location.reload()")
	if notify > reload {
		t.Error("user must be notified before the page reloads")
	}
}

func TestSSEHandlers_HandleRebuild_ServerErrorResetsButton(t *testing.T) {
	handlers := NewSSEHandlers(newTestDashboard(&stubBackend{rebuildErr: errors.Upstream(500, "X")}), testLogger())

	w := postRebuild(t, handlers, `{"confirmed":true}`)
	body := w.Body.String()

	if !strings.Contains(body, "Error: X") {
		t.Error("user should be told the backend detail")
	}
	if strings.Contains(body, "window.location.reload()") {
		t.Error("failed rebuild must not reload the page")
	}

	last := strings.LastIndex(body, `id="rebuildBtn"`)
	if last < 0 {
		t.Fatal("button never patched")
	}
	tail := body[last:]
	if strings.Contains(tail[:strings.Index(tail, ">")], "disabled") {
		t.Error("final button state should be enabled")
	}
	if !strings.Contains(tail, "spinner hidden") {
		t.Error("final spinner state should be hidden")
	}
}

func TestSSEHandlers_HandleRebuild_NotConfirmed(t *testing.T) {
	handlers := NewSSEHandlers(newTestDashboard(&stubBackend{}), testLogger())

	w := postRebuild(t, handlers, `{"confirmed":false}`)

	if strings.Contains(w.Body.String(), "rebuildBtn") {
		t.Error("cancelled rebuild should not touch the button")
	}
}

func TestSSEHandlers_HandleRebuild_BadSignals(t *testing.T) {
	handlers := NewSSEHandlers(newTestDashboard(&stubBackend{}), testLogger())

	w := postRebuild(t, handlers, `{"confirmed":`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	b, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(b), "BAD_REQUEST") {
		t.Errorf("body = %s", b)
	}
}
