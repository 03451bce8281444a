package domain

import (
	"context"
	"errors"

	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	customerdomain "github.com/smallbiznis/orderdesk/internal/customer/domain"
	"github.com/smallbiznis/orderdesk/internal/pricing"
	"github.com/smallbiznis/orderdesk/pkg/db/pagination"
)

// CheckoutRequest carries what the buyer confirmed on screen. The snapshot
// is compared against the live cart before anything is written.
type CheckoutRequest struct {
	Customer        customerdomain.CustomerInfo
	SnapshotItems   []cartdomain.LineItem
	SnapshotTotals  pricing.Totals
	IncludeShipping bool
	PreSale         bool
	Draft           bool
}

type ListInvoiceRequest struct {
	PageToken     string
	PageSize      int
	Status        InvoiceStatus
	CustomerTaxID string
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type Service interface {
	Checkout(ctx context.Context, req CheckoutRequest) (Invoice, error)
	Edit(ctx context.Context, id string, req CheckoutRequest) (Invoice, error)
	Finalize(ctx context.Context, id string) (Invoice, error)
	MarkCancelled(ctx context.Context, id string, reason string) (Invoice, error)
	SetShopifyOrderNumber(ctx context.Context, id string, orderNumber string) (Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	LoadIntoCart(ctx context.Context, id string) error
	Document(ctx context.Context, id string) (InvoiceDocument, error)
	AdvanceReceipt(ctx context.Context, id string) ([]byte, error)
}

var (
	ErrInvalidInvoiceID        = errors.New("invalid_invoice_id")
	ErrInvoiceNotFound         = errors.New("invoice_not_found")
	ErrInvoiceCancelled        = errors.New("invoice_cancelled")
	ErrInvalidStatusTransition = errors.New("invalid_status_transition")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrEmptyCart               = errors.New("empty_cart")
	ErrNotPreSale              = errors.New("invoice_not_pre_sale")
	ErrDocumentNotFound        = errors.New("invoice_document_not_found")
	ErrInvalidOrderNumber      = errors.New("invalid_order_number")
	ErrInvoiceNumberExhausted  = errors.New("invoice_number_conflict")
)
