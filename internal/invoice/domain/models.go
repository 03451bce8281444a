// Package domain contains persistence models for invoicing.
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	customerdomain "github.com/smallbiznis/orderdesk/internal/customer/domain"
	"github.com/smallbiznis/orderdesk/internal/pricing"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusFinalized InvoiceStatus = "finalized"
	// InvoiceStatusRehashed marks an invoice issued by editing an earlier one.
	InvoiceStatusRehashed  InvoiceStatus = "rehashed"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusFinalized, InvoiceStatusRehashed, InvoiceStatusCancelled:
		return true
	default:
		return false
	}
}

const CancelReasonSuperseded = "superseded"

// Invoice is an immutable financial snapshot. Only Status, the supersede
// links and ShopifyOrderNumber change after it is written.
type Invoice struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	InvoiceNumber string        `gorm:"type:text;not null;uniqueIndex:ux_invoice_number" json:"invoice_number"`
	Sequence      int64         `gorm:"not null;index" json:"sequence"`
	Status        InvoiceStatus `gorm:"type:text;not null;default:'draft';index" json:"status"`

	ItemsData     datatypes.JSON                                  `gorm:"type:jsonb;not null" json:"items_data"`
	Customer      datatypes.JSONType[customerdomain.CustomerInfo] `gorm:"type:jsonb;not null" json:"customer"`
	CustomerTaxID string                                          `gorm:"type:text;not null;index" json:"customer_tax_id"`

	CountryCode     string `gorm:"type:text;not null" json:"country_code"`
	ApplyRecharge   bool   `gorm:"not null;default:false" json:"apply_recharge"`
	IncludeShipping bool   `gorm:"not null" json:"include_shipping"`
	Currency        string `gorm:"type:text;not null" json:"currency"`

	SubtotalAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal_amount"`
	DiscountAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"discount_amount"`
	VATRate         decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"vat_rate"`
	VATAmount       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"vat_amount"`
	SurchargeAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"surcharge_amount"`
	ShippingAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"shipping_amount"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`

	PreSale         bool            `gorm:"not null;default:false" json:"pre_sale"`
	AdvanceAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"advance_amount"`
	RemainingAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"remaining_amount"`

	ShopifyOrderNumber *string       `gorm:"type:text" json:"shopify_order_number,omitempty"`
	SupersedesID       *snowflake.ID `gorm:"index" json:"supersedes_id,omitempty"`
	SupersededByID     *snowflake.ID `gorm:"index" json:"superseded_by_id,omitempty"`
	CancelReason       string        `gorm:"type:text" json:"cancel_reason,omitempty"`

	IssuedAt    time.Time  `gorm:"not null" json:"issued_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Items decodes the frozen line items.
func (i Invoice) Items() ([]cartdomain.LineItem, error) {
	if len(i.ItemsData) == 0 {
		return nil, nil
	}
	var items []cartdomain.LineItem
	if err := json.Unmarshal(i.ItemsData, &items); err != nil {
		return nil, fmt.Errorf("decode items of invoice %s: %w", i.InvoiceNumber, err)
	}
	return items, nil
}

// Totals rebuilds the stored, already rounded totals.
func (i Invoice) Totals() pricing.Totals {
	return pricing.Totals{
		ListSubtotal:    i.SubtotalAmount.Add(i.DiscountAmount),
		DiscountAmount:  i.DiscountAmount,
		SubtotalExclTax: i.SubtotalAmount,
		VATRate:         i.VATRate,
		VATAmount:       i.VATAmount,
		SurchargeAmount: i.SurchargeAmount,
		ShippingAmount:  i.ShippingAmount,
		GrandTotal:      i.TotalAmount,
	}
}

// PreSaleAmounts is nil unless the invoice is a pre-order.
func (i Invoice) PreSaleAmounts() *pricing.PreSaleAmounts {
	if !i.PreSale {
		return nil
	}
	return &pricing.PreSaleAmounts{
		Advance:   i.AdvanceAmount,
		Remaining: i.RemainingAmount,
		Total:     i.TotalAmount,
	}
}

// Editable reports whether the invoice can still be superseded.
func (i Invoice) Editable() bool {
	return i.Status != InvoiceStatusCancelled
}

// InvoiceDocument holds the rendered PDF of an invoice. It is written in the
// same transaction as the invoice row.
type InvoiceDocument struct {
	InvoiceID   snowflake.ID `gorm:"primaryKey" json:"invoice_id"`
	ContentType string       `gorm:"type:text;not null" json:"content_type"`
	Content     []byte       `gorm:"not null" json:"-"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
}

func (InvoiceDocument) TableName() string { return "invoice_documents" }

const ContentTypePDF = "application/pdf"
