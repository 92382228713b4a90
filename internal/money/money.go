// Package money holds the order arithmetic shared by the register, transactions and receipts.
package money

import (
	"github.com/fairshop/fairpos-backend/pkg/types"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Thai)

// Subtotal sums price × quantity over items. An empty slice yields zero.
func Subtotal(items []types.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// Total is subtotal minus discount. It is not floored at zero.
func Total(subtotal, discount decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount)
}

// ClampDiscount coerces negative input to zero.
func ClampDiscount(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Format renders d with two decimals and Thai digit grouping, e.g. 1,234.50.
func Format(d decimal.Decimal) string {
	return printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}
