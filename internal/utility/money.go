package utility

import "github.com/shopspring/decimal"

// PricedLine is one priced line of a visit, job, quote or order.
type PricedLine struct {
	Quantity  float64
	UnitPrice float64
}

// LineItemsTotal returns the exact sum of quantity × unitPrice.
func LineItemsTotal(lines []PricedLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromFloat(l.Quantity).Mul(decimal.NewFromFloat(l.UnitPrice)))
	}
	return total
}
