// Package discount maps (category, cumulative quantity) to a tiered
// percentage and keeps sibling lines of one product in agreement.
package discount

import (
	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	"github.com/smallbiznis/orderdesk/internal/ratetable"
)

// Engine evaluates discounts against one rate table snapshot.
type Engine struct {
	tables ratetable.Tables
}

// NewEngine returns an Engine bound to tables. Tables are normalized here so
// callers may pass decoded config directly.
func NewEngine(tables ratetable.Tables) *Engine {
	return &Engine{tables: tables.Normalize()}
}

var defaultEngine = NewEngine(ratetable.Default())

// CalculateDiscount uses the built-in tables.
func CalculateDiscount(category string, quantity int) int {
	return defaultEngine.CalculateDiscount(category, quantity)
}

// CalculateDiscount returns the tier percent for quantity, or 0 when the
// quantity is below one or the category is not eligible.
func (e *Engine) CalculateDiscount(category string, quantity int) int {
	if quantity < 1 {
		return 0
	}
	if !e.tables.IsDiscountCategory(category) {
		return 0
	}
	percent := 0
	for _, tier := range e.tables.DiscountTiers {
		if quantity < tier.MinQuantity {
			break
		}
		percent = tier.Percent
	}
	return percent
}

// AggregateQuantities sums valid line quantities per product id.
func AggregateQuantities(items []cartdomain.LineItem) map[string]int {
	totals := make(map[string]int, len(items))
	for _, item := range items {
		if item.ProductID == "" || item.Quantity < 1 {
			continue
		}
		totals[item.ProductID] += item.Quantity
	}
	return totals
}

// Recompute returns a copy of items where every line carries the discount
// for the summed quantity of all lines sharing its product id. Lines without
// a product id are priced on their own quantity.
func (e *Engine) Recompute(items []cartdomain.LineItem) []cartdomain.LineItem {
	out := cartdomain.CloneItems(items)
	totals := AggregateQuantities(out)
	for i := range out {
		qty := out[i].Quantity
		if out[i].ProductID != "" {
			qty = totals[out[i].ProductID]
		}
		out[i].DiscountPercent = e.CalculateDiscount(out[i].CategoryTag, qty)
	}
	return out
}

// RecomputeForProduct refreshes only the lines of productID, using category
// for every sibling.
func (e *Engine) RecomputeForProduct(items []cartdomain.LineItem, category, productID string) []cartdomain.LineItem {
	out := cartdomain.CloneItems(items)
	if productID == "" {
		return out
	}
	total := AggregateQuantities(out)[productID]
	percent := e.CalculateDiscount(category, total)
	for i := range out {
		if out[i].ProductID == productID {
			out[i].DiscountPercent = percent
		}
	}
	return out
}

// RecomputeLine refreshes the line at idx the way Recompute would: a line
// with a product id takes the discount of its whole product group, using its
// own category for every sibling, and a line without one is priced on its
// own quantity.
func (e *Engine) RecomputeLine(items []cartdomain.LineItem, idx int) []cartdomain.LineItem {
	if idx < 0 || idx >= len(items) {
		return cartdomain.CloneItems(items)
	}
	line := items[idx]
	if line.ProductID != "" {
		return e.RecomputeForProduct(items, line.CategoryTag, line.ProductID)
	}
	out := cartdomain.CloneItems(items)
	out[idx].DiscountPercent = e.CalculateDiscount(line.CategoryTag, line.Quantity)
	return out
}

// Recompute uses the built-in tables.
func Recompute(items []cartdomain.LineItem) []cartdomain.LineItem {
	return defaultEngine.Recompute(items)
}
