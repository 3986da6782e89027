// Package pricing classifies tab lines and computes their financial effect.
package pricing

import (
	"github.com/shopspring/decimal"

	"tabbook/backend/internal/domain"
)

// LineResult is what a single line contributes at settlement.
type LineResult struct {
	Revenue decimal.Decimal
	Profit  decimal.Decimal
	// BatchRevenue is the revenue that accrues onto the batch item instead of
	// being realized as line profit.
	BatchRevenue decimal.Decimal
	// BatchServing is set for sale lines of batch items.
	BatchServing bool
}

func Line(line domain.OrderLine) LineResult {
	costing := line.Costing()

	switch line.Type {
	case domain.LineTasting, domain.LineTreat:
		if unitCost, ok := costing.UnitCost(); ok {
			return LineResult{Revenue: decimal.Zero, Profit: unitCost.Neg()}
		}
		return LineResult{Revenue: decimal.Zero, Profit: decimal.Zero}
	default:
		if unitCost, ok := costing.UnitCost(); ok {
			return LineResult{Revenue: line.Price, Profit: line.Price.Sub(unitCost)}
		}
		return LineResult{
			Revenue:      line.Price,
			Profit:       decimal.Zero,
			BatchRevenue: line.Price,
			BatchServing: true,
		}
	}
}

func Subtotal(lines []domain.OrderLine) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(Line(line).Revenue)
	}
	return subtotal
}

// Total never goes below zero; the discount itself is kept as entered.
func Total(subtotal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

func Totals(guest domain.Guest) domain.TabTotals {
	subtotal := Subtotal(guest.Items)
	return domain.TabTotals{
		Subtotal: subtotal,
		Discount: guest.Discount,
		Total:    Total(subtotal, guest.Discount),
	}
}

// BatchProfit is the realized result of closing a batch item.
func BatchProfit(item domain.InventoryItem) (decimal.Decimal, bool) {
	batchCost, ok := item.Costing().BatchCost()
	if !ok {
		return decimal.Zero, false
	}
	return item.KegRevenue.Sub(batchCost), true
}
