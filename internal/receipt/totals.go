package receipt

import (
	"strings"

	"order-printer/internal/model"
)

// Totals is the money summary printed at the bottom of a receipt
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// IsTax reports whether a fee is a tax, by description.
func IsTax(f model.Fee) bool {
	return strings.Contains(strings.ToLower(f.Description), "tax")
}

// TaxAmount sums the tax fees of a cost breakdown.
func TaxAmount(cost *model.Cost) int64 {
	if cost == nil {
		return 0
	}
	var tax int64
	for _, f := range cost.Fees {
		if IsTax(f) {
			tax += f.Amount
		}
	}
	return tax
}

// Total is the subtotal plus tax.
func Total(cost *model.Cost) int64 {
	if cost == nil {
		return 0
	}
	return cost.SubtotalAmount + TaxAmount(cost)
}

// ComputeTotals returns the totals of an order.
func ComputeTotals(order *model.OrderDocument) Totals {
	if order == nil || order.Cost == nil {
		return Totals{}
	}
	return Totals{
		Subtotal: order.Cost.SubtotalAmount,
		Tax:      TaxAmount(order.Cost),
		Total:    Total(order.Cost),
	}
}
