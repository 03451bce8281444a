// Package pricing combines line items, discounts, tax and shipping into the
// one Totals value shown in the cart and frozen into invoices.
package pricing

import (
	"github.com/shopspring/decimal"
	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	"github.com/smallbiznis/orderdesk/internal/ratetable"
	"github.com/smallbiznis/orderdesk/internal/tax"
)

// MoneyPlaces is the number of decimals used at display and persistence.
const MoneyPlaces = 2

// Context carries the non-item inputs of a totals calculation.
type Context struct {
	CountryCode     string `json:"country_code"`
	ApplyRecharge   bool   `json:"apply_recharge"`
	IncludeShipping bool   `json:"include_shipping"`
}

// Params is the full input of CalculateTotals.
type Params struct {
	Items []cartdomain.LineItem
	Context
}

// Totals is the canonical result. Amounts are unrounded; call Rounded before
// showing or storing them.
type Totals struct {
	ListSubtotal    decimal.Decimal `json:"list_subtotal"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	SubtotalExclTax decimal.Decimal `json:"subtotal_excl_tax"`
	VATRate         decimal.Decimal `json:"vat_rate"`
	VATAmount       decimal.Decimal `json:"vat_amount"`
	SurchargeAmount decimal.Decimal `json:"surcharge_amount"`
	ShippingAmount  decimal.Decimal `json:"shipping_amount"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
}

// Rounded returns a copy with every amount rounded half away from zero to
// MoneyPlaces. GrandTotal is re-derived from the rounded parts so the
// printed lines always add up.
func (t Totals) Rounded() Totals {
	out := Totals{
		ListSubtotal:    t.ListSubtotal.Round(MoneyPlaces),
		DiscountAmount:  t.DiscountAmount.Round(MoneyPlaces),
		SubtotalExclTax: t.SubtotalExclTax.Round(MoneyPlaces),
		VATRate:         t.VATRate,
		VATAmount:       t.VATAmount.Round(MoneyPlaces),
		SurchargeAmount: t.SurchargeAmount.Round(MoneyPlaces),
		ShippingAmount:  t.ShippingAmount.Round(MoneyPlaces),
	}
	out.GrandTotal = out.SubtotalExclTax.Add(out.VATAmount).Add(out.SurchargeAmount).Add(out.ShippingAmount)
	return out
}

// Calculator aggregates totals against one rate table snapshot.
type Calculator struct {
	tax     *tax.Calculator
	advance decimal.Decimal
}

func NewCalculator(tables ratetable.Tables) *Calculator {
	advance := tables.PreSaleAdvance
	if advance <= 0 {
		advance = ratetable.Default().PreSaleAdvance
	}
	return &Calculator{
		tax:     tax.NewCalculator(tables),
		advance: decimal.NewFromFloat(advance).Div(decimal.NewFromInt(100)),
	}
}

var defaultCalculator = NewCalculator(ratetable.Default())

// CalculateTotals uses the built-in tables.
func CalculateTotals(p Params) Totals {
	return defaultCalculator.CalculateTotals(p)
}

// CalculateTotals is a pure function of its arguments. Invalid lines are
// skipped, discounts are taken from each line as already recomputed, and
// shipping is priced on the tax-inclusive subtotal.
func (c *Calculator) CalculateTotals(p Params) Totals {
	list := decimal.Zero
	subtotal := decimal.Zero
	for _, item := range p.Items {
		if !item.Valid() {
			continue
		}
		list = list.Add(item.ListTotal())
		subtotal = subtotal.Add(item.LineTotal())
	}

	vat := c.tax.CalculateVAT(subtotal, p.CountryCode)
	surcharge := c.tax.CalculateRecharge(subtotal, p.ApplyRecharge)
	shipping := decimal.Zero
	if p.IncludeShipping {
		shipping = c.tax.CalculateShipping(p.CountryCode, subtotal.Add(vat))
	}

	return Totals{
		ListSubtotal:    list,
		DiscountAmount:  list.Sub(subtotal),
		SubtotalExclTax: subtotal,
		VATRate:         c.tax.VATRate(p.CountryCode),
		VATAmount:       vat,
		SurchargeAmount: surcharge,
		ShippingAmount:  shipping,
		GrandTotal:      subtotal.Add(vat).Add(surcharge).Add(shipping),
	}
}

// PreSaleAmounts splits a pre-order total into an advance and the remainder.
type PreSaleAmounts struct {
	Advance   decimal.Decimal `json:"advance"`
	Remaining decimal.Decimal `json:"remaining"`
	Total     decimal.Decimal `json:"total"`
}

// CalculatePreSaleAmounts uses the built-in advance share.
func CalculatePreSaleAmounts(total decimal.Decimal) PreSaleAmounts {
	return defaultCalculator.CalculatePreSaleAmounts(total)
}

// CalculatePreSaleAmounts rounds the advance to cents and leaves the rest as
// remaining, so Advance + Remaining == Total exactly.
func (c *Calculator) CalculatePreSaleAmounts(total decimal.Decimal) PreSaleAmounts {
	advance := total.Mul(c.advance).Round(MoneyPlaces)
	return PreSaleAmounts{
		Advance:   advance,
		Remaining: total.Sub(advance),
		Total:     total,
	}
}
