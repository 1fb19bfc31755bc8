package handlers

import (
	"context"
	"io"
	"log/slog"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

type stubBackend struct {
	monthlyErr      error
	transactionsErr error
	rebuildErr      error
}

func (s *stubBackend) RevenueByCountry(ctx context.Context) ([]models.CountryRevenue, error) {
	return []models.CountryRevenue{
		{Country: "United Kingdom", TotalRevenue: 1_000_000},
		{Country: "Netherlands", TotalRevenue: 234_500},
	}, nil
}

func (s *stubBackend) MonthlySales(ctx context.Context) ([]models.MonthlySales, error) {
	if s.monthlyErr != nil {
		return nil, s.monthlyErr
	}
	return []models.MonthlySales{{Month: "2010-12", Revenue: 100}, {Month: "2011-01", Revenue: 200}}, nil
}

func (s *stubBackend) TopCustomers(ctx context.Context, limit int) ([]models.TopCustomer, error) {
	out := []models.TopCustomer{{CustomerID: 14646.0, TotalSpend: 280206}, {CustomerID: 18102.7, TotalSpend: 259657}}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubBackend) Transactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	if s.transactionsErr != nil {
		return nil, s.transactionsErr
	}
	return []models.Transaction{
		{InvoiceID: "536365", InvoiceDate: "2010-12-01T08:26:00", Country: "United Kingdom", Items: make([]models.LineItem, 7)},
	}, nil
}

func (s *stubBackend) RebuildDatabase(ctx context.Context) (models.RebuildResult, error) {
	if s.rebuildErr != nil {
		return models.RebuildResult{}, s.rebuildErr
	}
	return models.RebuildResult{Status: "success"}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDashboard(b services.Backend) *services.Dashboard {
	return services.NewDashboard(b, services.Limits{}, testLogger())
}

var errMonthlyDown = errors.Upstream(500, "monthly view missing")
