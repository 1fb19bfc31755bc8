package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

const maxLimit = 100

// APIHandlers expose each dashboard region as JSON.
type APIHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard *services.Dashboard, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

var noStore = map[string]string{
	"Cache-Control": "no-store",
}

func (h *APIHandlers) HandleRevenueStats(w http.ResponseWriter, r *http.Request) {
	v := models.NewView()
	if err := h.dashboard.LoadRevenueStats(r.Context(), v); err != nil {
		h.writeError(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, v.Revenue, noStore)
}

func (h *APIHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	v := models.NewView()
	if err := h.dashboard.LoadMonthlySales(r.Context(), v); err != nil {
		h.writeError(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, v.Monthly, noStore)
}

func (h *APIHandlers) HandleTopCustomers(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, h.dashboard.Limits().TopCustomers)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	v := models.NewView()
	if err := h.dashboard.LoadTopCustomers(r.Context(), v, limit); err != nil {
		h.writeError(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, v.Customers, noStore)
}

func (h *APIHandlers) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, h.dashboard.Limits().Transactions)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	v := models.NewView()
	if err := h.dashboard.LoadTransactions(r.Context(), v, limit); err != nil {
		h.writeError(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, v.Transactions, noStore)
}

// HandleSnapshot runs the full fan-out and returns the whole view together
// with the load report.
func (h *APIHandlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	v := models.NewView()
	report := h.dashboard.Load(r.Context(), v)

	errors.WriteSuccessWithHeaders(w, map[string]any{
		"view":     v,
		"failed":   report.Failed,
		"duration": report.Duration.String(),
	}, noStore)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, r, h.logger, err)
}

func parseLimit(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.BadRequestWrap(err, "limit must be an integer")
	}
	if limit < 1 || limit > maxLimit {
		return 0, errors.Validation("limit must be between 1 and " + strconv.Itoa(maxLimit))
	}
	return limit, nil
}
