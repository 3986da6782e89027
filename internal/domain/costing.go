package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ItemKind separates discretely counted goods from kegs and food batches
// sold by the serving.
type ItemKind int

const (
	KindUnit ItemKind = iota
	KindBatch
)

func (k ItemKind) String() string {
	if k == KindBatch {
		return "batch"
	}
	return "unit"
}

func kindOf(isKeg bool) ItemKind {
	if isKeg {
		return KindBatch
	}
	return KindUnit
}

// Costing carries an item's cost together with what that cost means. For
// unit items it is the cost of one unit; for batch items it is everything
// spent on the keg or batch so far.
type Costing struct {
	Kind   ItemKind
	Amount decimal.Decimal
}

func (c Costing) UnitCost() (decimal.Decimal, bool) {
	if c.Kind != KindUnit {
		return decimal.Zero, false
	}
	return c.Amount, true
}

func (c Costing) BatchCost() (decimal.Decimal, bool) {
	if c.Kind != KindBatch {
		return decimal.Zero, false
	}
	return c.Amount, true
}

// CoerceAmount turns loosely typed input (a JSON number, a numeric string,
// anything else) into a non-negative amount. Unparseable or negative input
// yields zero.
func CoerceAmount(raw json.RawMessage) decimal.Decimal {
	text := strings.TrimSpace(string(raw))
	text = strings.Trim(text, `"`)
	if text == "" || text == "null" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil || amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
