// Package tax computes VAT, equivalence surcharge and shipping fees.
// All functions are pure; invalid inputs yield zero rather than errors.
package tax

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/orderdesk/internal/ratetable"
)

var hundred = decimal.NewFromInt(100)

// Calculator evaluates tax and shipping against one rate table snapshot.
type Calculator struct {
	tables ratetable.Tables
}

func NewCalculator(tables ratetable.Tables) *Calculator {
	return &Calculator{tables: tables.Normalize()}
}

var defaultCalculator = NewCalculator(ratetable.Default())

// Default returns the calculator built on ratetable.Default().
func Default() *Calculator { return defaultCalculator }

// VATRate returns the VAT percent for a country or COUNTRY-REGION code.
// Zero-VAT regions return 0; unrecognized codes fall back to the domestic rate.
func (c *Calculator) VATRate(countryCode string) decimal.Decimal {
	code := ratetable.NormalizeCountry(countryCode)
	if c.tables.IsZeroVATRegion(code) {
		return decimal.Zero
	}
	if rate, ok := c.tables.VATRates[code]; ok {
		return decimal.NewFromFloat(rate)
	}
	return decimal.NewFromFloat(c.tables.DomesticVATRate())
}

// CalculateVAT returns subtotal * rate / 100, or 0 for a negative subtotal.
func (c *Calculator) CalculateVAT(subtotal decimal.Decimal, countryCode string) decimal.Decimal {
	if subtotal.IsNegative() {
		return decimal.Zero
	}
	return subtotal.Mul(c.VATRate(countryCode)).Div(hundred)
}

// CalculateShipping prices shipping from the tax-inclusive subtotal.
// Zero-VAT regions ship free, the domestic zone uses its own fee and
// threshold, everything else (unknown codes included) is international.
func (c *Calculator) CalculateShipping(countryCode string, subtotalInclTax decimal.Decimal) decimal.Decimal {
	code := ratetable.NormalizeCountry(countryCode)
	if c.tables.IsZeroVATRegion(code) {
		return decimal.Zero
	}
	zone := c.tables.Shipping.International
	if c.tables.IsDomestic(code) {
		zone = c.tables.Shipping.Domestic
	}
	if subtotalInclTax.GreaterThanOrEqual(decimal.NewFromFloat(zone.FreeThreshold)) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(zone.Fee)
}

// CalculateRecharge returns the equivalence surcharge when apply is set.
func (c *Calculator) CalculateRecharge(subtotal decimal.Decimal, apply bool) decimal.Decimal {
	if !apply || subtotal.IsNegative() {
		return decimal.Zero
	}
	return subtotal.Mul(decimal.NewFromFloat(c.tables.RechargePercent)).Div(hundred)
}

// RechargePercent exposes the configured surcharge rate.
func (c *Calculator) RechargePercent() decimal.Decimal {
	return decimal.NewFromFloat(c.tables.RechargePercent)
}

func VATRate(countryCode string) decimal.Decimal {
	return defaultCalculator.VATRate(countryCode)
}

func CalculateVAT(subtotal decimal.Decimal, countryCode string) decimal.Decimal {
	return defaultCalculator.CalculateVAT(subtotal, countryCode)
}

func CalculateShipping(countryCode string, subtotalInclTax decimal.Decimal) decimal.Decimal {
	return defaultCalculator.CalculateShipping(countryCode, subtotalInclTax)
}

func CalculateRecharge(subtotal decimal.Decimal, apply bool) decimal.Decimal {
	return defaultCalculator.CalculateRecharge(subtotal, apply)
}
