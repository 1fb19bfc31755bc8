package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"sales-dashboard/internal/models"
)

// InvalidDate is shown for invoice dates that cannot be parsed.
const InvalidDate = "Invalid Date"

const (
	lineColor  = "#38bdf8"
	lineFill   = "rgba(56, 189, 248, 0.1)"
	barColor   = "#818cf8"
	gridColor  = "rgba(255,255,255,0.05)"
	dateLayout = "1/2/2006"
)

var invoiceDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// FormatMillions renders a revenue total as "$<millions>M" to two decimals.
func FormatMillions(total float64) string {
	return fmt.Sprintf("$%.2fM", total/1_000_000)
}

// CustomerLabel truncates the id toward zero, so 7.9 becomes "ID: 7".
func CustomerLabel(id float64) string {
	return fmt.Sprintf("ID: %d", int64(math.Trunc(id)))
}

func FormatItemCount(n int) string {
	return fmt.Sprintf("%d items", n)
}

// FormatInvoiceDate renders an ISO-like timestamp as a short en-US date.
func FormatInvoiceDate(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range invoiceDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(dateLayout)
		}
	}
	return InvalidDate
}

func hidden() *bool {
	b := false
	return &b
}

// MonthlyChart is a filled line chart with no legend and no x gridlines.
func MonthlyChart(labels []string, values []float64) *models.ChartSpec {
	return &models.ChartSpec{
		Type: "line",
		Data: models.ChartData{
			Labels: labels,
			Datasets: []models.ChartDataset{{
				Label:           "Revenue",
				Data:            values,
				BorderColor:     lineColor,
				BackgroundColor: lineFill,
				Tension:         0.4,
				Fill:            true,
			}},
		},
		Options: models.ChartOptions{
			Responsive: true,
			Plugins:    models.ChartPlugins{Legend: models.ChartLegend{Display: false}},
			Scales: map[string]models.ChartScale{
				"y": {Grid: models.ChartGrid{Color: gridColor}},
				"x": {Grid: models.ChartGrid{Display: hidden()}},
			},
		},
	}
}

// CustomerChart is a horizontal bar chart of customer spend.
func CustomerChart(labels []string, values []float64) *models.ChartSpec {
	return &models.ChartSpec{
		Type: "bar",
		Data: models.ChartData{
			Labels: labels,
			Datasets: []models.ChartDataset{{
				Label:           "Total Spend",
				Data:            values,
				BackgroundColor: barColor,
				BorderRadius:    4,
			}},
		},
		Options: models.ChartOptions{
			IndexAxis:  "y",
			Responsive: true,
			Plugins:    models.ChartPlugins{Legend: models.ChartLegend{Display: false}},
			Scales: map[string]models.ChartScale{
				"x": {Grid: models.ChartGrid{Color: gridColor}},
				"y": {Grid: models.ChartGrid{Display: hidden()}},
			},
		},
	}
}
