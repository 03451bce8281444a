package pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ReceiptData is the advance payment receipt of a pre-order invoice.
type ReceiptData struct {
	InvoiceData
	DatePaid time.Time
}

func (p *PDFProvider) GenerateAdvanceReceipt(_ context.Context, receipt ReceiptData) ([]byte, error) {
	if receipt.PreSale == nil {
		return nil, fmt.Errorf("invoice %s is not a pre-order", receipt.InvoiceNumber)
	}
	presale := receipt.PreSale
	currency := receipt.Currency

	m := maroto.New(pageConfig())

	m.AddRow(20,
		text.NewCol(12, "Advance payment receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+receipt.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date paid: "+receipt.DatePaid.Format("02/01/2006"), props.Text{Top: 4}),
		),
		col.New(6),
	)

	m.AddRow(40, issuerCol(receipt.Issuer), billToCol(receipt.Customer), col.New(4))

	m.AddRow(15,
		text.NewCol(12, money(presale.Advance, currency)+" paid on "+receipt.DatePaid.Format("02/01/2006"), props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	addItemRows(m, receipt.Items, currency)

	addTotalRow(m, "Invoice total", money(presale.Total, currency), false)
	addTotalRow(m, "Advance paid", money(presale.Advance, currency), true)
	addTotalRow(m, "Remaining on delivery", money(presale.Remaining, currency), false)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
