package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/services"
)

type Server struct {
	dashboard   *services.Dashboard
	router      chi.Router
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(dashboard *services.Dashboard, logger *slog.Logger, templateHandlers *TemplateHandlers) (*Server, error) {
	s := &Server{
		dashboard:   dashboard,
		router:      chi.NewRouter(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(dashboard, logger),
		sseHandlers: handlers.NewSSEHandlers(dashboard, logger),
	}
	if err := s.setupRoutes(templateHandlers); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) error {
	compress, err := middleware.Compression()
	if err != nil {
		return err
	}

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, r, s.logger, errors.NotFound("no route for "+r.URL.Path))
	})

	s.router.Get("/health", s.apiHandlers.HandleHealth)

	// Page and JSON responses are compressed; event streams are not.
	s.router.Group(func(r chi.Router) {
		r.Use(compress)

		r.Get("/", templateHandlers.Dashboard)

		r.Route("/api", func(r chi.Router) {
			r.Get("/revenue-stats", s.apiHandlers.HandleRevenueStats)
			r.Get("/monthly-sales", s.apiHandlers.HandleMonthlySales)
			r.Get("/top-customers", s.apiHandlers.HandleTopCustomers)
			r.Get("/transactions", s.apiHandlers.HandleTransactions)
			r.Get("/snapshot", s.apiHandlers.HandleSnapshot)
		})
	})

	// Datastar SSE endpoints
	s.router.Route("/sse", func(r chi.Router) {
		r.Get("/revenue-stats", s.sseHandlers.HandleRevenueStats)
		r.Get("/monthly-sales", s.sseHandlers.HandleMonthlySales)
		r.Get("/top-customers", s.sseHandlers.HandleTopCustomers)
		r.Get("/transactions", s.sseHandlers.HandleTransactions)
		r.Get("/refresh-all", s.sseHandlers.HandleRefreshAll)
		r.Post("/rebuild", s.sseHandlers.HandleRebuild)
	})

	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
