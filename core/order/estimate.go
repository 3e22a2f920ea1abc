package order

import (
	"github.com/shopspring/decimal"

	"staas-order/core/selection"
)

// Line is one selected price's contribution to an estimate
type Line struct {
	PriceID     int             `json:"price_id"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	MonthlyFee  decimal.Decimal `json:"monthly_fee"`
	HourlyFee   decimal.Decimal `json:"hourly_fee"`
}

// Estimate sums the recurring fees of the selected standard prices. The
// order service may substitute location-specific prices whose fees differ
// slightly, so this is indicative rather than a quote.
type Estimate struct {
	Currency string          `json:"currency"`
	Monthly  decimal.Decimal `json:"monthly"`
	Hourly   decimal.Decimal `json:"hourly"`
	Lines    []Line          `json:"lines"`
}

// NewEstimate totals the fees of a completed selection
func NewEstimate(selected *selection.Selected) Estimate {
	estimate := Estimate{Currency: "USD"}

	for _, price := range selected.Prices() {
		line := Line{
			PriceID:     price.ID,
			Description: price.Item.Description,
			MonthlyFee:  price.RecurringFee,
			HourlyFee:   price.HourlyRecurringFee,
		}
		if len(price.Categories) > 0 {
			line.Category = price.Categories[0].CategoryCode
		}

		estimate.Monthly = estimate.Monthly.Add(price.RecurringFee)
		estimate.Hourly = estimate.Hourly.Add(price.HourlyRecurringFee)
		estimate.Lines = append(estimate.Lines, line)
	}

	return estimate
}
