package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidFeed      = errors.New("invalid_catalog_feed")
	ErrProductNotFound  = errors.New("product_not_found")
	ErrVariantNotFound  = errors.New("variant_not_found")
	ErrVariantAmbiguous = errors.New("variant_ambiguous")
)

// Product is one entry of the storefront product feed.
type Product struct {
	ProductID    string    `json:"product_id"`
	Title        string    `json:"title"`
	CategoryTags []string  `json:"category_tags"`
	Variants     []Variant `json:"variants"`
}

// Variant is a sellable size/color combination of a product.
type Variant struct {
	SKU          string          `json:"sku"`
	Size         string          `json:"size,omitempty"`
	Color        string          `json:"color,omitempty"`
	PriceExclVAT decimal.Decimal `json:"price_excl_vat"`
	Stock        int             `json:"stock"`
}

// Variant finds the variant matching size and color, case-insensitively.
func (p Product) Variant(size, color string) (Variant, bool) {
	for _, v := range p.Variants {
		if strings.EqualFold(strings.TrimSpace(v.Size), strings.TrimSpace(size)) &&
			strings.EqualFold(strings.TrimSpace(v.Color), strings.TrimSpace(color)) {
			return v, true
		}
	}
	return Variant{}, false
}
