// Package backend is the HTTP client for the sales analytics API.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

const (
	pathRevenueByCountry = "/stats/revenue/by-country"
	pathMonthlySales     = "/analytics/monthly-sales"
	pathTopCustomers     = "/analytics/top-customers"
	pathTransactions     = "/transactions"
	pathRebuildDatabase  = "/system/rebuild-database"

	maxErrorBody = 64 * 1024
)

type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(cfg config.BackendConfig, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}

	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}, nil
}

func (c *Client) RevenueByCountry(ctx context.Context) ([]models.CountryRevenue, error) {
	var out []models.CountryRevenue
	if err := c.do(ctx, http.MethodGet, pathRevenueByCountry, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MonthlySales(ctx context.Context) ([]models.MonthlySales, error) {
	var out []models.MonthlySales
	if err := c.do(ctx, http.MethodGet, pathMonthlySales, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) TopCustomers(ctx context.Context, limit int) ([]models.TopCustomer, error) {
	var out []models.TopCustomer
	if err := c.do(ctx, http.MethodGet, pathTopCustomers, limitQuery(limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Transactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	var out []models.Transaction
	if err := c.do(ctx, http.MethodGet, pathTransactions, limitQuery(limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RebuildDatabase asks the backend to drop and repopulate its database.
// The call has no deadline of its own; it lasts as long as ctx allows.
func (c *Client) RebuildDatabase(ctx context.Context) (models.RebuildResult, error) {
	var out models.RebuildResult
	if err := c.do(ctx, http.MethodPost, pathRebuildDatabase, nil, &out); err != nil {
		return models.RebuildResult{}, err
	}
	return out, nil
}

func limitQuery(limit int) url.Values {
	return url.Values{"limit": []string{strconv.Itoa(limit)}}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) (err error) {
	ctx, span := observability.StartSpan(ctx, "backend "+method+" "+path)
	span.SetTag("http.method", method)
	span.SetTag("http.path", path)
	defer func() {
		span.End(err)
		c.logger.DebugContext(ctx, "backend call", "span", span)
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), nil)
	if err != nil {
		return errors.InternalWrap(err, "build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if requestID := observability.GetRequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Network(err, method+" "+path)
	}
	defer resp.Body.Close()

	span.SetTag("http.status_code", strconv.Itoa(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Upstream(resp.StatusCode, readDetail(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Parse(err, "decode "+path+" response")
	}
	return nil
}

// readDetail returns the backend's own explanation of a failed call, or ""
// when the body carries none. Validation failures are reported as their
// messages joined with "; ".
func readDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return ""
	}

	var be models.BackendError
	if err := json.Unmarshal(raw, &be); err != nil || len(be.Detail) == 0 {
		return ""
	}

	var detail string
	if err := json.Unmarshal(be.Detail, &detail); err == nil {
		return strings.TrimSpace(detail)
	}

	var issues []models.ValidationIssue
	if err := json.Unmarshal(be.Detail, &issues); err != nil {
		return ""
	}
	msgs := make([]string, 0, len(issues))
	for _, issue := range issues {
		if issue.Msg != "" {
			msgs = append(msgs, issue.Msg)
		}
	}
	return strings.Join(msgs, "; ")
}
