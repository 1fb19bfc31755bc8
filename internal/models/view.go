package models

// Placeholder is shown in a summary figure until its region loads.
const Placeholder = "--"

// View is the rendered state of one dashboard page. Each region is written
// by exactly one load operation, so regions can be filled concurrently.
type View struct {
	Revenue      RevenueStats      `json:"revenue"`
	Monthly      MonthlyChart      `json:"monthly"`
	Customers    TopCustomersPanel `json:"customers"`
	Transactions TransactionsTable `json:"transactions"`
}

func NewView() *View {
	return &View{
		Revenue: RevenueStats{
			TotalRevenue: Placeholder,
			TopCountry:   Placeholder,
		},
		Customers: TopCustomersPanel{
			Count: Placeholder,
		},
	}
}

type RevenueStats struct {
	TotalRevenue string `json:"total_revenue"`
	TopCountry   string `json:"top_country"`
	Loaded       bool   `json:"loaded"`
}

// MonthlyChart holds nil Chart until sales have been fetched.
type MonthlyChart struct {
	Chart  *ChartSpec `json:"chart"`
	Loaded bool       `json:"loaded"`
}

type TopCustomersPanel struct {
	Count  string     `json:"count"`
	Chart  *ChartSpec `json:"chart"`
	Loaded bool       `json:"loaded"`
}

type TransactionsTable struct {
	Rows   []TransactionRow `json:"rows"`
	Loaded bool             `json:"loaded"`
}

type TransactionRow struct {
	InvoiceID string `json:"invoice_id"`
	Date      string `json:"date"`
	Country   string `json:"country"`
	Items     string `json:"items"`
}

// ChartSpec is a Chart.js configuration object.
type ChartSpec struct {
	Type    string       `json:"type"`
	Data    ChartData    `json:"data"`
	Options ChartOptions `json:"options"`
}

type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

type ChartDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BorderColor     string    `json:"borderColor,omitempty"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	Tension         float64   `json:"tension,omitempty"`
	Fill            bool      `json:"fill,omitempty"`
	BorderRadius    int       `json:"borderRadius,omitempty"`
}

type ChartOptions struct {
	IndexAxis  string                `json:"indexAxis,omitempty"`
	Responsive bool                  `json:"responsive"`
	Plugins    ChartPlugins          `json:"plugins"`
	Scales     map[string]ChartScale `json:"scales"`
}

type ChartPlugins struct {
	Legend ChartLegend `json:"legend"`
}

type ChartLegend struct {
	Display bool `json:"display"`
}

type ChartScale struct {
	Grid ChartGrid `json:"grid"`
}

// ChartGrid uses a pointer for Display so that an unset value is omitted
// and Chart.js falls back to its default of showing the grid.
type ChartGrid struct {
	Display *bool  `json:"display,omitempty"`
	Color   string `json:"color,omitempty"`
}
