// Package ratetable holds the static reference data used by pricing:
// VAT per jurisdiction, shipping zones and the discount tier table.
package ratetable

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyVATRates         = errors.New("invalid_vat_rates")
	ErrInvalidDomesticRegion = errors.New("invalid_domestic_country")
	ErrInvalidTiers          = errors.New("invalid_discount_tiers")
	ErrInvalidShipping       = errors.New("invalid_shipping_zone")
	ErrInvalidRecharge       = errors.New("invalid_recharge_percent")
)

// Tables is one consistent snapshot of every rate used by the calculators.
// Percentages are expressed as whole numbers (21 means 21%).
type Tables struct {
	DomesticCountry    string             `mapstructure:"domesticCountry" yaml:"domesticCountry"`
	VATRates           map[string]float64 `mapstructure:"vatRates" yaml:"vatRates"`
	ZeroVATRegions     []string           `mapstructure:"zeroVatRegions" yaml:"zeroVatRegions"`
	Shipping           ShippingTable      `mapstructure:"shipping" yaml:"shipping"`
	RechargePercent    float64            `mapstructure:"rechargePercent" yaml:"rechargePercent"`
	PreSaleAdvance     float64            `mapstructure:"preSaleAdvance" yaml:"preSaleAdvance"`
	DiscountTiers      []DiscountTier     `mapstructure:"discountTiers" yaml:"discountTiers"`
	DiscountCategories []string           `mapstructure:"discountCategories" yaml:"discountCategories"`
	BackfillVocabulary []TagAlias         `mapstructure:"backfillVocabulary" yaml:"backfillVocabulary"`
}

// ShippingTable separates the domestic zone from everything else.
// Zero-VAT regions always ship free and have no entry here.
type ShippingTable struct {
	Domestic      ShippingZone `mapstructure:"domestic" yaml:"domestic"`
	International ShippingZone `mapstructure:"international" yaml:"international"`
}

// ShippingZone charges Fee while the tax-inclusive amount is below FreeThreshold.
type ShippingZone struct {
	Fee           float64 `mapstructure:"fee" yaml:"fee"`
	FreeThreshold float64 `mapstructure:"freeThreshold" yaml:"freeThreshold"`
}

// DiscountTier applies Percent from MinQuantity (inclusive) up to the next tier.
type DiscountTier struct {
	MinQuantity int `mapstructure:"minQuantity" yaml:"minQuantity"`
	Percent     int `mapstructure:"percent" yaml:"percent"`
}

// TagAlias maps a catalog tag fragment to a discount category. Used only by
// legacy backfill, which matches case-insensitively on substrings.
type TagAlias struct {
	Needle   string `mapstructure:"needle" yaml:"needle"`
	Category string `mapstructure:"category" yaml:"category"`
}

const (
	CategoryWholesale = "Wholesale"
	CategoryB2B       = "B2B Collection"
)

// Default returns the built-in tables used when no rates file is present.
func Default() Tables {
	return Tables{
		DomesticCountry: "ES",
		VATRates: map[string]float64{
			"ES": 21,
			"PT": 23,
			"FR": 20,
			"DE": 19,
			"IT": 22,
			"NL": 21,
			"BE": 21,
			"AT": 20,
			"IE": 23,
			"LU": 17,
			"GB": 20,
			"AD": 4.5,
		},
		ZeroVATRegions: []string{"ES-CN", "ES-CE", "ES-ML"},
		Shipping: ShippingTable{
			Domestic:      ShippingZone{Fee: 5, FreeThreshold: 200},
			International: ShippingZone{Fee: 15, FreeThreshold: 500},
		},
		RechargePercent: 5.2,
		PreSaleAdvance:  30,
		DiscountTiers: []DiscountTier{
			{MinQuantity: 1, Percent: 0},
			{MinQuantity: 2, Percent: 30},
			{MinQuantity: 16, Percent: 35},
			{MinQuantity: 52, Percent: 40},
		},
		DiscountCategories: []string{CategoryWholesale, CategoryB2B},
		BackfillVocabulary: []TagAlias{
			{Needle: "wholesale", Category: CategoryWholesale},
			{Needle: "mayorista", Category: CategoryWholesale},
			{Needle: "b2b", Category: CategoryB2B},
		},
	}
}

// Normalize upper-cases country codes and sorts tiers ascending. Config
// loaders lower-case map keys, so it must run after every decode.
func (t Tables) Normalize() Tables {
	out := t
	out.DomesticCountry = NormalizeCountry(t.DomesticCountry)

	out.VATRates = make(map[string]float64, len(t.VATRates))
	for code, rate := range t.VATRates {
		out.VATRates[NormalizeCountry(code)] = rate
	}

	out.ZeroVATRegions = make([]string, 0, len(t.ZeroVATRegions))
	for _, code := range t.ZeroVATRegions {
		if code = NormalizeCountry(code); code != "" {
			out.ZeroVATRegions = append(out.ZeroVATRegions, code)
		}
	}

	out.DiscountTiers = append([]DiscountTier(nil), t.DiscountTiers...)
	sort.SliceStable(out.DiscountTiers, func(i, j int) bool {
		return out.DiscountTiers[i].MinQuantity < out.DiscountTiers[j].MinQuantity
	})

	out.DiscountCategories = append([]string(nil), t.DiscountCategories...)
	out.BackfillVocabulary = append([]TagAlias(nil), t.BackfillVocabulary...)
	return out
}

// Validate rejects tables that would make the calculators misbehave.
func (t Tables) Validate() error {
	if len(t.VATRates) == 0 {
		return ErrEmptyVATRates
	}
	domestic := NormalizeCountry(t.DomesticCountry)
	if domestic == "" {
		return ErrInvalidDomesticRegion
	}
	found := false
	for code, rate := range t.VATRates {
		if rate < 0 || rate > 100 {
			return fmt.Errorf("vat rate for %s out of range: %w", code, ErrEmptyVATRates)
		}
		if NormalizeCountry(code) == domestic {
			found = true
		}
	}
	if !found {
		return ErrInvalidDomesticRegion
	}
	if t.Shipping.Domestic.Fee < 0 || t.Shipping.Domestic.FreeThreshold < 0 ||
		t.Shipping.International.Fee < 0 || t.Shipping.International.FreeThreshold < 0 {
		return ErrInvalidShipping
	}
	if t.RechargePercent < 0 || t.RechargePercent > 100 {
		return ErrInvalidRecharge
	}
	if len(t.DiscountTiers) == 0 {
		return ErrInvalidTiers
	}
	seen := make(map[int]struct{}, len(t.DiscountTiers))
	for _, tier := range t.DiscountTiers {
		if tier.MinQuantity < 1 || tier.Percent < 0 || tier.Percent > 100 {
			return ErrInvalidTiers
		}
		if _, dup := seen[tier.MinQuantity]; dup {
			return ErrInvalidTiers
		}
		seen[tier.MinQuantity] = struct{}{}
	}
	return nil
}

// DomesticVATRate is the fallback rate for unrecognized codes.
func (t Tables) DomesticVATRate() float64 {
	return t.VATRates[NormalizeCountry(t.DomesticCountry)]
}

// IsZeroVATRegion reports whether code is a VAT-exempt sub-region.
func (t Tables) IsZeroVATRegion(code string) bool {
	code = NormalizeCountry(code)
	for _, region := range t.ZeroVATRegions {
		if region == code {
			return true
		}
	}
	return false
}

// IsDomestic reports whether code belongs to the domestic shipping zone.
// Zero-VAT sub-regions of the domestic country are not domestic.
func (t Tables) IsDomestic(code string) bool {
	return NormalizeCountry(code) == NormalizeCountry(t.DomesticCountry)
}

// IsDiscountCategory is an exact, case-sensitive membership test.
func (t Tables) IsDiscountCategory(category string) bool {
	if category == "" {
		return false
	}
	for _, c := range t.DiscountCategories {
		if c == category {
			return true
		}
	}
	return false
}

// NormalizeCountry trims and upper-cases an ISO country or COUNTRY-REGION code.
func NormalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
