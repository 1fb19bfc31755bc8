// Package templates holds the templ components for the dashboard page and
// the partials that SSE handlers patch into it.
//
// Edit dashboard.templ and run `templ generate`; dashboard_templ.go is
// generated.
package templates

import (
	"encoding/json"
	"fmt"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

// Element ids the page script and SSE patches rely on.
const (
	IDTotalRevenue      = "totalRevenue"
	IDTopCountry        = "topCountry"
	IDMonthlyChart      = "monthlyChart"
	IDCustomerChart     = "customerChart"
	IDCustomerCount     = "customerCount"
	IDTransactionsTable = "transactionsTable"
	IDRebuildBtn        = "rebuildBtn"
	IDSpinner           = "spinner"
	IDBtnText           = "btnText"
)

// DrawChartScript redraws the chart held by the canvas with the given id.
func DrawChartScript(id string) string {
	return fmt.Sprintf("drawChart(%q)", id)
}

func chartJSON(id string, spec *models.ChartSpec) (string, error) {
	raw, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("marshal %s chart: %w", id, err)
	}
	return string(raw), nil
}

func rebuildClick() string {
	return fmt.Sprintf("$confirmed = confirm(%q); $confirmed && @post('/sse/rebuild')", services.RebuildConfirmPrompt)
}

func rebuildLabel(busy bool) string {
	if busy {
		return services.RebuildBusyLabel
	}
	return services.RebuildLabel
}
