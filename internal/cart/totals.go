package cart

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ChangeQuantity returns the item's quantity adjusted by delta, clamped at 1.
// Decrementing below 1 through this path is a no-op; removal is a distinct
// explicit operation.
func ChangeQuantity(item LineItem, delta int) int {
	next := item.Quantity + delta
	if next < 1 {
		return 1
	}
	return next
}

// thousandsGrouped accepts prices with US-style comma grouping, e.g.
// "1,234,567.89". Commas anywhere else mark a format this parser does not
// understand.
var thousandsGrouped = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParsePrice interprets a textual price. US thousands separators are
// tolerated ("2,500" parses as 2500), but a comma outside a 3-digit grouping
// (decimal-comma inputs like "2.500,00") yields zero rather than a silently
// wrong value. Anything that still fails to parse also yields zero, never an
// error. Every price interpretation in the cart goes through here.
func ParsePrice(raw string) decimal.Decimal {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return decimal.Zero
	}
	if strings.Contains(cleaned, ",") {
		if !thousandsGrouped.MatchString(cleaned) {
			return decimal.Zero
		}
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return value
}

// ComputeTotals derives item count and subtotal from the current line items.
// Negative unit prices contribute zero; the result is always well-formed.
func ComputeTotals(items []LineItem) Totals {
	totals := Totals{Subtotal: decimal.Zero}
	for _, item := range items {
		totals.ItemCount += item.Quantity
		price := item.UnitPrice
		if price.IsNegative() {
			price = decimal.Zero
		}
		totals.Subtotal = totals.Subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return totals
}
