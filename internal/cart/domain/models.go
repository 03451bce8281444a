// Package domain contains the line item model shared by the cart, the
// calculators and the persisted invoice.
package domain

import (
	"strings"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

// LineItem is one product variant's entry in a cart or invoice.
type LineItem struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	SKU             string          `json:"sku,omitempty"`
	Title           string          `json:"title,omitempty"`
	CategoryTag     string          `json:"category_tag,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent int             `json:"discount_percent"`
	Size            string          `json:"size,omitempty"`
	Color           string          `json:"color,omitempty"`
}

// Valid reports whether the line can take part in a subtotal.
func (li LineItem) Valid() bool {
	return li.Quantity >= 1 && !li.UnitPrice.IsNegative()
}

// LineTotal is quantity * unit price * (1 - discount/100), unrounded.
func (li LineItem) LineTotal() decimal.Decimal {
	gross := li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
	if li.DiscountPercent <= 0 {
		return gross
	}
	factor := decimal.NewFromInt(int64(100 - clampPercent(li.DiscountPercent))).Div(decimal.NewFromInt(100))
	return gross.Mul(factor)
}

// ListTotal is the undiscounted quantity * unit price.
func (li LineItem) ListTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ItemKey derives the identity key of a variant so that adding the same
// (product, size, color) twice merges into one line. The product id is kept
// verbatim; only size and color are normalized.
func ItemKey(productID, size, color string) string {
	parts := []string{
		keyEscaper.Replace(productID),
		variantPart(size),
		variantPart(color),
	}
	return strings.Join(parts, "|")
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, "|", `\|`)

func variantPart(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	if s := slug.Make(value); s != "" {
		return s
	}
	return keyEscaper.Replace(strings.ToLower(value))
}

// CloneItems copies a slice of line items. LineItem holds no pointers, so a
// shallow element copy is a full copy.
func CloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
