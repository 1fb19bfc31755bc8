package models

// Transaction is one invoice as returned by GET /transactions.
type Transaction struct {
	InvoiceID   string     `json:"invoice_id"`
	CustomerID  *float64   `json:"customer_id,omitempty"`
	InvoiceDate string     `json:"invoice_date"`
	Country     string     `json:"country"`
	Items       []LineItem `json:"items"`
}

type LineItem struct {
	StockCode   string  `json:"stock_code"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}
