package pdf

import (
	"context"
)

// Provider turns a frozen invoice into a printable document. It has no say
// in the amounts; everything it prints is precomputed.
type Provider interface {
	GenerateInvoice(ctx context.Context, data InvoiceData) ([]byte, error)
	GenerateAdvanceReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateInvoice(context.Context, InvoiceData) ([]byte, error) {
	return nil, nil
}

func (p *NoOpProvider) GenerateAdvanceReceipt(context.Context, ReceiptData) ([]byte, error) {
	return nil, nil
}
