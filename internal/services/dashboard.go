package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/models"
)

const (
	DefaultTopCustomersLimit = 10
	DefaultTransactionsLimit = 5
)

// Region names, used in logs and load reports.
const (
	RegionRevenueStats = "revenue-stats"
	RegionMonthlySales = "monthly-sales"
	RegionTopCustomers = "top-customers"
	RegionTransactions = "transactions"
)

// Backend is the subset of the analytics API the dashboard reads and writes.
type Backend interface {
	RevenueByCountry(ctx context.Context) ([]models.CountryRevenue, error)
	MonthlySales(ctx context.Context) ([]models.MonthlySales, error)
	TopCustomers(ctx context.Context, limit int) ([]models.TopCustomer, error)
	Transactions(ctx context.Context, limit int) ([]models.Transaction, error)
	RebuildDatabase(ctx context.Context) (models.RebuildResult, error)
}

type Limits struct {
	TopCustomers int
	Transactions int
}

type Dashboard struct {
	backend    Backend
	limits     Limits
	logger     *slog.Logger
	rebuilding atomic.Bool
}

func NewDashboard(backend Backend, limits Limits, logger *slog.Logger) *Dashboard {
	if limits.TopCustomers <= 0 {
		limits.TopCustomers = DefaultTopCustomersLimit
	}
	if limits.Transactions <= 0 {
		limits.Transactions = DefaultTransactionsLimit
	}
	return &Dashboard{
		backend: backend,
		limits:  limits,
		logger:  logger,
	}
}

func (d *Dashboard) Limits() Limits {
	return d.limits
}

// LoadReport describes one fan-out of the four region loads.
type LoadReport struct {
	Regions  int
	Failed   []string
	Duration time.Duration
}

func (r LoadReport) OK() bool {
	return len(r.Failed) == 0
}

// Load fills every region of v concurrently and returns once all four
// loads have settled. A failing load never cancels or fails its siblings.
func (d *Dashboard) Load(ctx context.Context, v *models.View) LoadReport {
	start := time.Now()

	loads := []struct {
		region string
		fn     func(context.Context, *models.View) error
	}{
		{RegionRevenueStats, d.LoadRevenueStats},
		{RegionMonthlySales, d.LoadMonthlySales},
		{RegionTopCustomers, func(ctx context.Context, v *models.View) error {
			return d.LoadTopCustomers(ctx, v, d.limits.TopCustomers)
		}},
		{RegionTransactions, func(ctx context.Context, v *models.View) error {
			return d.LoadTransactions(ctx, v, d.limits.Transactions)
		}},
	}

	failed := make([]bool, len(loads))

	// Tasks always return nil; failures are recorded per region.
	var g errgroup.Group
	for i, load := range loads {
		g.Go(func() error {
			if err := load.fn(ctx, v); err != nil {
				failed[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	report := LoadReport{
		Regions:  len(loads),
		Duration: time.Since(start),
	}
	for i, f := range failed {
		if f {
			report.Failed = append(report.Failed, loads[i].region)
		}
	}

	d.logger.InfoContext(ctx, "dashboard loaded",
		"regions", report.Regions,
		"failed", report.Failed,
		"duration", report.Duration,
	)
	return report
}

// LoadRevenueStats writes the total revenue and top country figures.
// On failure the figures keep whatever they showed before.
func (d *Dashboard) LoadRevenueStats(ctx context.Context, v *models.View) error {
	data, err := d.backend.RevenueByCountry(ctx)
	if err != nil {
		return d.fail(ctx, RegionRevenueStats, err)
	}

	var total float64
	for _, item := range data {
		total += item.TotalRevenue
	}

	v.Revenue.TotalRevenue = FormatMillions(total)
	if len(data) > 0 {
		v.Revenue.TopCountry = data[0].Country
	}
	v.Revenue.Loaded = true
	return nil
}

// LoadMonthlySales builds the revenue line chart. On failure the chart is
// left as it was, which for a fresh view means unrendered.
func (d *Dashboard) LoadMonthlySales(ctx context.Context, v *models.View) error {
	data, err := d.backend.MonthlySales(ctx)
	if err != nil {
		return d.fail(ctx, RegionMonthlySales, err)
	}

	labels := make([]string, len(data))
	values := make([]float64, len(data))
	for i, point := range data {
		labels[i] = point.Month
		values[i] = point.Revenue
	}

	v.Monthly.Chart = MonthlyChart(labels, values)
	v.Monthly.Loaded = true
	return nil
}

// LoadTopCustomers writes the customer count and the spend bar chart.
func (d *Dashboard) LoadTopCustomers(ctx context.Context, v *models.View, limit int) error {
	data, err := d.backend.TopCustomers(ctx, limit)
	if err != nil {
		return d.fail(ctx, RegionTopCustomers, err)
	}

	labels := make([]string, len(data))
	values := make([]float64, len(data))
	for i, c := range data {
		labels[i] = CustomerLabel(c.CustomerID)
		values[i] = c.TotalSpend
	}

	v.Customers.Count = fmt.Sprint(len(data))
	v.Customers.Chart = CustomerChart(labels, values)
	v.Customers.Loaded = true
	return nil
}

// LoadTransactions replaces the table rows wholesale. A failed fetch leaves
// the previous rows in place rather than clearing them.
func (d *Dashboard) LoadTransactions(ctx context.Context, v *models.View, limit int) error {
	data, err := d.backend.Transactions(ctx, limit)
	if err != nil {
		return d.fail(ctx, RegionTransactions, err)
	}

	if limit > 0 && len(data) > limit {
		data = data[:limit]
	}

	rows := make([]models.TransactionRow, 0, len(data))
	for _, tx := range data {
		rows = append(rows, models.TransactionRow{
			InvoiceID: tx.InvoiceID,
			Date:      FormatInvoiceDate(tx.InvoiceDate),
			Country:   tx.Country,
			Items:     FormatItemCount(len(tx.Items)),
		})
	}

	v.Transactions.Rows = rows
	v.Transactions.Loaded = true
	return nil
}

func (d *Dashboard) fail(ctx context.Context, region string, err error) error {
	d.logger.ErrorContext(ctx, "failed to load dashboard region",
		"region", region,
		"error", err,
	)
	return fmt.Errorf("load %s: %w", region, err)
}
