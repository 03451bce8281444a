package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	customerdomain "github.com/smallbiznis/orderdesk/internal/customer/domain"
	"github.com/smallbiznis/orderdesk/internal/pricing"
)

// Issuer is the selling company printed in the header.
type Issuer struct {
	Name        string
	TaxID       string
	Address     string
	Email       string
	BankDetails string
}

type InvoiceData struct {
	Issuer             Issuer
	InvoiceNumber      string
	IssuedAt           time.Time
	Status             string
	Currency           string
	ShopifyOrderNumber string

	Customer customerdomain.CustomerInfo
	Items    []cartdomain.LineItem
	Totals   pricing.Totals
	PreSale  *pricing.PreSaleAmounts
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateInvoice(_ context.Context, invoice InvoiceData) ([]byte, error) {
	if strings.TrimSpace(invoice.InvoiceNumber) == "" {
		return nil, fmt.Errorf("invoice number is required")
	}
	totals := invoice.Totals.Rounded()

	m := maroto.New(pageConfig())

	m.AddRow(10,
		text.NewCol(12, "Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	meta := []core.Component{
		text.New("Invoice number: "+invoice.InvoiceNumber, props.Text{Top: 0}),
		text.New("Date of issue: "+invoice.IssuedAt.Format("02/01/2006"), props.Text{Top: 4}),
	}
	if invoice.ShopifyOrderNumber != "" {
		meta = append(meta, text.New("Order: "+invoice.ShopifyOrderNumber, props.Text{Top: 8}))
	}
	if invoice.Status != "" {
		meta = append(meta, text.New("Status: "+invoice.Status, props.Text{Top: 12}))
	}
	m.AddRow(20, col.New(6).Add(meta...), col.New(6))

	m.AddRow(40, issuerCol(invoice.Issuer), billToCol(invoice.Customer), col.New(4))

	m.AddRow(15,
		text.NewCol(12, money(totals.GrandTotal, invoice.Currency)+" due", props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	if invoice.Issuer.BankDetails != "" {
		m.AddRow(25,
			text.NewCol(12, invoice.Issuer.BankDetails, props.Text{Size: 9}),
		)
	}

	addItemRows(m, invoice.Items, invoice.Currency)

	addTotalRow(m, "Subtotal", money(totals.SubtotalExclTax, invoice.Currency), false)
	if totals.DiscountAmount.IsPositive() {
		addTotalRow(m, "Discount included", money(totals.DiscountAmount, invoice.Currency), false)
	}
	addTotalRow(m, fmt.Sprintf("VAT %s%%", totals.VATRate.String()), money(totals.VATAmount, invoice.Currency), false)
	if totals.SurchargeAmount.IsPositive() {
		addTotalRow(m, "Equivalence surcharge", money(totals.SurchargeAmount, invoice.Currency), false)
	}
	addTotalRow(m, "Shipping", money(totals.ShippingAmount, invoice.Currency), false)
	addTotalRow(m, "Total", money(totals.GrandTotal, invoice.Currency), true)

	if invoice.PreSale != nil {
		addTotalRow(m, "Advance (pre-order)", money(invoice.PreSale.Advance, invoice.Currency), false)
		addTotalRow(m, "Remaining", money(invoice.PreSale.Remaining, invoice.Currency), true)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func pageConfig() *entity.Config {
	return config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
}

func issuerCol(issuer Issuer) core.Col {
	return col.New(4).Add(
		text.New(issuer.Name, props.Text{Style: fontstyle.Bold}),
		text.New(issuer.TaxID, props.Text{Top: 5}),
		text.New(issuer.Address, props.Text{Top: 9}),
		text.New(issuer.Email, props.Text{Top: 20}),
	)
}

func billToCol(c customerdomain.CustomerInfo) core.Col {
	address := strings.Join(nonEmpty(c.Address, strings.TrimSpace(c.PostalCode+" "+c.City), c.CountryCode), ", ")
	return col.New(4).Add(
		text.New("Bill to", props.Text{Style: fontstyle.Bold}),
		text.New(c.FiscalName, props.Text{Top: 5}),
		text.New(c.TaxID, props.Text{Top: 9}),
		text.New(address, props.Text{Top: 13}),
		text.New(c.Email, props.Text{Top: 25}),
	)
}

func addItemRows(m core.Maroto, items []cartdomain.LineItem, currency string) {
	m.AddRow(10,
		text.NewCol(5, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Discount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range items {
		m.AddRow(15,
			text.NewCol(5, describe(item), props.Text{Size: 9}),
			text.NewCol(1, fmt.Sprintf("%d", item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money(item.UnitPrice, currency), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, fmt.Sprintf("%d%%", item.DiscountPercent), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money(item.LineTotal(), currency), props.Text{Size: 9, Align: align.Right}),
		)
	}
}

func addTotalRow(m core.Maroto, label, value string, bold bool) {
	style := fontstyle.Normal
	if bold {
		style = fontstyle.Bold
	}
	m.AddRow(10,
		col.New(7),
		text.NewCol(3, label, props.Text{Size: 9, Style: style}),
		text.NewCol(2, value, props.Text{Size: 9, Style: style, Align: align.Right}),
	)
}

func describe(item cartdomain.LineItem) string {
	title := item.Title
	if title == "" {
		title = item.SKU
	}
	variant := strings.Join(nonEmpty(item.Size, item.Color), " / ")
	if variant == "" {
		return title
	}
	return title + " (" + variant + ")"
}

func money(amount decimal.Decimal, currency string) string {
	value := amount.StringFixed(pricing.MoneyPlaces)
	if currency == "" {
		return value
	}
	return value + " " + currency
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
