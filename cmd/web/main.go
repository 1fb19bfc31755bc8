package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"sales-dashboard/internal/backend"
	"sales-dashboard/internal/config"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const rebuildPollInterval = 50 * time.Millisecond

// pageContext bounds a page load by the backend timeout. A zero timeout
// leaves the load bounded only by the request itself.
func pageContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// dashboardPage loads every region concurrently and renders the full page.
// Regions whose fetch failed keep their placeholders.
func dashboardPage(dash *services.Dashboard, logger *slog.Logger, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := pageContext(r.Context(), timeout)
		defer cancel()

		v := models.NewView()
		if report := dash.Load(ctx, v); !report.OK() {
			logger.WarnContext(ctx, "dashboard rendered with missing regions",
				"failed", report.Failed,
				"duration", report.Duration,
				"request_id", observability.GetRequestID(ctx),
			)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := templates.Dashboard(v, dash.Limits()).Render(ctx, w); err != nil {
			logger.ErrorContext(ctx, "render dashboard", "error", err)
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func newDashboard(cfg *config.Config, logger *slog.Logger) (*services.Dashboard, error) {
	client, err := backend.NewClient(cfg.Backend, logger)
	if err != nil {
		return nil, err
	}
	return services.NewDashboard(client, services.Limits{
		TopCustomers: cfg.Backend.TopCustomersLimit,
		Transactions: cfg.Backend.TransactionsLimit,
	}, logger), nil
}

func newHandler(cfg *config.Config, dash *services.Dashboard, logger *slog.Logger) (http.Handler, error) {
	srv, err := server.NewServer(dash, logger, &server.TemplateHandlers{
		Dashboard: dashboardPage(dash, logger, cfg.Backend.Timeout),
	})
	if err != nil {
		return nil, err
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middlewareChain(srv), nil
}

// waitForRebuild blocks until no rebuild is in flight or ctx ends. The
// server keeps the rebuild stream open while draining; this reports a
// rebuild that outlived the shutdown window.
func waitForRebuild(ctx context.Context, dash *services.Dashboard, logger *slog.Logger) error {
	if !dash.RebuildInFlight() {
		return nil
	}
	logger.InfoContext(ctx, "waiting for database rebuild to finish")

	ticker := time.NewTicker(rebuildPollInterval)
	defer ticker.Stop()
	for dash.RebuildInFlight() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("database rebuild still running: %w", ctx.Err())
		case <-ticker.C:
		}
	}
	logger.InfoContext(ctx, "database rebuild finished before shutdown")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"backend", cfg.Backend.BaseURL,
		"top_customers_limit", cfg.Backend.TopCustomersLimit,
		"transactions_limit", cfg.Backend.TransactionsLimit,
	)

	dash, err := newDashboard(cfg, logger)
	if err != nil {
		logger.Error("failed to create backend client", "error", err)
		os.Exit(1)
	}

	handler, err := newHandler(cfg, dash, logger)
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)
	gracefulServer.RegisterShutdownHook("rebuild", func(ctx context.Context) error {
		return waitForRebuild(ctx, dash, logger)
	})

	if err := gracefulServer.ListenAndServe(context.Background()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
