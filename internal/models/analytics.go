package models

import "encoding/json"

type CountryRevenue struct {
	Country      string  `json:"country"`
	TotalRevenue float64 `json:"total_revenue"`
}

type MonthlySales struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

type TopCustomer struct {
	CustomerID float64 `json:"customer_id"`
	TotalSpend float64 `json:"total_spend"`
}

// RebuildResult is the success body of POST /system/rebuild-database.
type RebuildResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Log     string `json:"log,omitempty"`
}

// BackendError is the body the analytics API sends with non-2xx responses.
// Detail is a string for raised errors and a list of ValidationIssue for
// rejected request parameters.
type BackendError struct {
	Detail json.RawMessage `json:"detail"`
}

type ValidationIssue struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}
