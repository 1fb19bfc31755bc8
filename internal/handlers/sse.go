package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

// rebuildSignals is the client state posted with a rebuild request.
type rebuildSignals struct {
	Confirmed bool `json:"confirmed"`
}

func renderHTML(ctx context.Context, c templ.Component) (string, error) {
	var buf strings.Builder
	err := c.Render(ctx, &buf)
	return buf.String(), err
}

func (h *SSEHandlers) patch(ctx context.Context, sse *datastar.ServerSentEventGenerator, components ...templ.Component) {
	for _, c := range components {
		html, err := renderHTML(ctx, c)
		if err != nil {
			h.logger.ErrorContext(ctx, "render partial", "error", err)
			continue
		}
		if err := sse.PatchElements(html); err != nil {
			h.logger.WarnContext(ctx, "patch elements", "error", err)
			return
		}
	}
}

func (h *SSEHandlers) drawChart(ctx context.Context, sse *datastar.ServerSentEventGenerator, id string) {
	if err := sse.ExecuteScript(templates.DrawChartScript(id)); err != nil {
		h.logger.WarnContext(ctx, "execute chart script", "chart", id, "error", err)
	}
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// Each region handler patches only when its load succeeded, so a failed
// fetch leaves whatever the browser already shows.

func (h *SSEHandlers) HandleRevenueStats(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	v := models.NewView()
	if err := h.dashboard.LoadRevenueStats(ctx, v); err != nil {
		return
	}
	h.patch(ctx, sse, templates.TotalRevenue(v.Revenue), templates.TopCountry(v.Revenue))

	flush(w)
}

func (h *SSEHandlers) HandleMonthlySales(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	v := models.NewView()
	if err := h.dashboard.LoadMonthlySales(ctx, v); err != nil {
		return
	}
	h.patch(ctx, sse, templates.MonthlyChart(v.Monthly))
	h.drawChart(ctx, sse, templates.IDMonthlyChart)

	flush(w)
}

func (h *SSEHandlers) HandleTopCustomers(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	v := models.NewView()
	if err := h.dashboard.LoadTopCustomers(ctx, v, h.dashboard.Limits().TopCustomers); err != nil {
		return
	}
	h.patch(ctx, sse, templates.CustomerCount(v.Customers), templates.CustomerChart(v.Customers))
	h.drawChart(ctx, sse, templates.IDCustomerChart)

	flush(w)
}

func (h *SSEHandlers) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	v := models.NewView()
	if err := h.dashboard.LoadTransactions(ctx, v, h.dashboard.Limits().Transactions); err != nil {
		return
	}
	h.patch(ctx, sse, templates.TransactionsBody(v.Transactions))

	flush(w)
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	v := models.NewView()
	h.dashboard.Load(ctx, v)

	if v.Revenue.Loaded {
		h.patch(ctx, sse, templates.TotalRevenue(v.Revenue), templates.TopCountry(v.Revenue))
	}
	if v.Monthly.Loaded {
		h.patch(ctx, sse, templates.MonthlyChart(v.Monthly))
		h.drawChart(ctx, sse, templates.IDMonthlyChart)
	}
	if v.Customers.Loaded {
		h.patch(ctx, sse, templates.CustomerCount(v.Customers), templates.CustomerChart(v.Customers))
		h.drawChart(ctx, sse, templates.IDCustomerChart)
	}
	if v.Transactions.Loaded {
		h.patch(ctx, sse, templates.TransactionsBody(v.Transactions))
	}

	flush(w)
}

// HandleRebuild runs the admin rebuild flow, streaming button state,
// notifications and the final reload to the page.
func (h *SSEHandlers) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	var signals rebuildSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, r, h.logger, errors.BadRequestWrap(err, "invalid rebuild signals"))
		return
	}

	// A rebuild can outlast the server write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.DebugContext(r.Context(), "clear write deadline", "error", err)
	}

	sse := datastar.NewSSE(w, r)
	ui := &sseRebuildUI{ctx: r.Context(), sse: sse, w: w}

	out := h.dashboard.RebuildDatabase(r.Context(), signals.Confirmed, ui)
	h.logger.InfoContext(r.Context(), "rebuild request finished",
		"state", out.Flow.State(),
		"result", out.Result,
		"error", out.Err,
	)
}

// sseRebuildUI drives the rebuild control in the browser over SSE.
type sseRebuildUI struct {
	ctx context.Context
	sse *datastar.ServerSentEventGenerator
	w   http.ResponseWriter
}

func (u *sseRebuildUI) SetBusy(busy bool) error {
	html, err := renderHTML(u.ctx, templates.RebuildButton(busy))
	if err != nil {
		return err
	}
	if err := u.sse.PatchElements(html); err != nil {
		return err
	}
	flush(u.w)
	return nil
}

func (u *sseRebuildUI) Notify(message string) error {
	quoted, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return u.sse.ExecuteScript("alert(" + string(quoted) + ")")
}

func (u *sseRebuildUI) Reload() error {
	return u.sse.ExecuteScript("window.location.reload()")
}
