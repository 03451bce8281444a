package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderdesk/internal/cart"
	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	"github.com/smallbiznis/orderdesk/internal/clock"
	"github.com/smallbiznis/orderdesk/internal/config"
	"github.com/smallbiznis/orderdesk/internal/consistency"
	customerdomain "github.com/smallbiznis/orderdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/orderdesk/internal/invoice/domain"
	invoiceformat "github.com/smallbiznis/orderdesk/internal/invoice/format"
	"github.com/smallbiznis/orderdesk/internal/observability/logger"
	"github.com/smallbiznis/orderdesk/internal/observability/metrics"
	"github.com/smallbiznis/orderdesk/internal/pricing"
	"github.com/smallbiznis/orderdesk/internal/providers/pdf"
	"github.com/smallbiznis/orderdesk/internal/ratetable"
	"github.com/smallbiznis/orderdesk/pkg/db"
	"github.com/smallbiznis/orderdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxNumberAttempts = 3

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Config    config.Config
	Repo      invoicedomain.Repository
	Store     *cart.Store
	Guard     *consistency.Guard
	Rates     ratetable.Provider     `optional:"true"`
	PDF       pdf.Provider           `optional:"true"`
	Customers customerdomain.Service `optional:"true"`
	Metrics   *metrics.Metrics       `optional:"true"`
	Clock     clock.Clock            `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID     *snowflake.Node
	cfg       config.InvoiceConfig
	repo      invoicedomain.Repository
	store     *cart.Store
	guard     *consistency.Guard
	rates     ratetable.Provider
	pdf       pdf.Provider
	customers customerdomain.Service
	metrics   *metrics.Metrics
	clock     clock.Clock
}

func NewService(p ServiceParam) invoicedomain.Service {
	cfg := p.Config.Invoice
	if cfg.NumberTemplate == "" {
		cfg.NumberTemplate = invoiceformat.DefaultInvoiceNumberTemplate
	}
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	renderer := p.PDF
	if renderer == nil {
		renderer = &pdf.NoOpProvider{}
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.System{}
	}
	rates := p.Rates
	if rates == nil {
		rates = ratetable.Static(ratetable.Default())
	}

	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invoice.service"),
		genID:     p.GenID,
		cfg:       cfg,
		repo:      p.Repo,
		store:     p.Store,
		guard:     p.Guard,
		rates:     rates,
		pdf:       renderer,
		customers: p.Customers,
		metrics:   p.Metrics,
		clock:     clk,
	}
}

// Checkout freezes the live cart into a new invoice. Nothing is written
// when the buyer's snapshot no longer matches the cart.
func (s *Service) Checkout(ctx context.Context, req invoicedomain.CheckoutRequest) (invoicedomain.Invoice, error) {
	status := invoicedomain.InvoiceStatusFinalized
	if req.Draft {
		status = invoicedomain.InvoiceStatusDraft
	}
	return s.save(ctx, req, status, nil)
}

// Edit re-saves a previously loaded invoice. The new invoice is "rehashed"
// and the original is cancelled in the same transaction.
func (s *Service) Edit(ctx context.Context, id string, req invoicedomain.CheckoutRequest) (invoicedomain.Invoice, error) {
	originalID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	original, err := s.find(ctx, originalID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if !original.Editable() {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceCancelled
	}
	return s.save(ctx, req, invoicedomain.InvoiceStatusRehashed, &original.ID)
}

func (s *Service) save(ctx context.Context, req invoicedomain.CheckoutRequest, status invoicedomain.InvoiceStatus, supersedes *snowflake.ID) (invoicedomain.Invoice, error) {
	if err := req.Customer.Validate(); err != nil {
		return invoicedomain.Invoice{}, err
	}
	customer := req.Customer.Normalize()

	pc := pricing.Context{
		CountryCode:     customer.CountryCode,
		ApplyRecharge:   customer.ApplyRecharge,
		IncludeShipping: req.IncludeShipping,
	}
	// The check and the write share one read of the cart.
	check := s.guard.CheckConsistencyFor(pc, req.SnapshotItems, req.SnapshotTotals)
	if check.Blocked {
		s.metrics.RecordGuardBlocked(ctx, check.Reason())
		s.log.Warn("checkout blocked, cart changed since it was shown",
			zap.Int("item_count_delta", check.ItemCountDelta),
			zap.String("total_delta", check.TotalDelta.String()),
		)
		return invoicedomain.Invoice{}, check.Err()
	}

	items := check.LiveItems
	if len(items) == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrEmptyCart
	}
	totals := check.LiveTotals.Rounded()

	if err := s.store.SetPricingContext(ctx, pc); err != nil {
		return invoicedomain.Invoice{}, fmt.Errorf("apply pricing context: %w", err)
	}

	itemsData, err := json.Marshal(items)
	if err != nil {
		return invoicedomain.Invoice{}, fmt.Errorf("encode invoice items: %w", err)
	}

	now := s.clock.Now()
	invoice := invoicedomain.Invoice{
		ID:              s.genID.Generate(),
		Status:          status,
		ItemsData:       datatypes.JSON(itemsData),
		Customer:        datatypes.NewJSONType(customer),
		CustomerTaxID:   customer.TaxID,
		CountryCode:     customer.CountryCode,
		ApplyRecharge:   customer.ApplyRecharge,
		IncludeShipping: req.IncludeShipping,
		Currency:        s.cfg.Currency,
		SubtotalAmount:  totals.SubtotalExclTax,
		DiscountAmount:  totals.DiscountAmount,
		VATRate:         totals.VATRate,
		VATAmount:       totals.VATAmount,
		SurchargeAmount: totals.SurchargeAmount,
		ShippingAmount:  totals.ShippingAmount,
		TotalAmount:     totals.GrandTotal,
		PreSale:         req.PreSale,
		SupersedesID:    supersedes,
		IssuedAt:        now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.PreSale {
		amounts := pricing.NewCalculator(s.rates.Get()).CalculatePreSaleAmounts(totals.GrandTotal)
		invoice.AdvanceAmount = amounts.Advance
		invoice.RemainingAmount = amounts.Remaining
	}
	if status != invoicedomain.InvoiceStatusDraft {
		invoice.FinalizedAt = &now
	}

	if err := s.persist(ctx, &invoice, items); err != nil {
		return invoicedomain.Invoice{}, err
	}

	log := logger.WithInvoice(s.log, invoice.ID.String(), invoice.InvoiceNumber)
	s.metrics.RecordInvoiceSaved(ctx, string(invoice.Status))
	if supersedes != nil {
		s.metrics.RecordInvoiceCancelled(ctx, invoicedomain.CancelReasonSuperseded)
		log.Info("invoice superseded", zap.String("original_id", supersedes.String()))
	}
	log.Info("invoice saved",
		zap.String("status", string(invoice.Status)),
		zap.String("total", invoice.TotalAmount.StringFixed(2)),
	)

	if s.customers != nil {
		if _, err := s.customers.Remember(ctx, customer); err != nil {
			log.Warn("failed to remember customer", zap.Error(err))
		}
	}
	if err := s.store.RemoveAll(ctx); err != nil {
		log.Warn("invoice saved but cart could not be cleared", zap.Error(err))
	}

	return invoice, nil
}

// persist numbers the invoice, renders its document and writes both rows,
// plus the cancellation of the superseded invoice, in one transaction.
func (s *Service) persist(ctx context.Context, invoice *invoicedomain.Invoice, items []cartdomain.LineItem) error {
	var lastErr error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if invoice.SupersedesID != nil {
				if err := s.cancelSuperseded(ctx, tx, *invoice.SupersedesID, invoice.ID); err != nil {
					return err
				}
			}

			seq, err := s.repo.NextSequence(ctx, tx)
			if err != nil {
				return err
			}
			number, err := invoiceformat.FormatInvoiceNumber(s.cfg.NumberTemplate, invoice.IssuedAt, seq)
			if err != nil {
				return err
			}
			invoice.Sequence = seq
			invoice.InvoiceNumber = number

			content, err := s.pdf.GenerateInvoice(ctx, s.documentData(*invoice, items))
			if err != nil {
				return fmt.Errorf("render invoice %s: %w", number, err)
			}

			if err := s.repo.Insert(ctx, tx, invoice); err != nil {
				return err
			}
			if len(content) == 0 {
				return nil
			}
			return s.repo.InsertDocument(ctx, tx, &invoicedomain.InvoiceDocument{
				InvoiceID:   invoice.ID,
				ContentType: invoicedomain.ContentTypePDF,
				Content:     content,
				CreatedAt:   invoice.CreatedAt,
			})
		})
		if err == nil {
			return nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		lastErr = err
		s.log.Warn("invoice number taken, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return fmt.Errorf("%w: %v", invoicedomain.ErrInvoiceNumberExhausted, lastErr)
}

func (s *Service) cancelSuperseded(ctx context.Context, tx *gorm.DB, originalID, replacementID snowflake.ID) error {
	original, err := s.repo.FindByIDForUpdate(ctx, tx, originalID)
	if err != nil {
		return err
	}
	if original == nil {
		return invoicedomain.ErrInvoiceNotFound
	}
	if !original.Editable() {
		return invoicedomain.ErrInvoiceCancelled
	}
	now := s.clock.Now()
	return s.repo.Update(ctx, tx, originalID, map[string]any{
		"status":           invoicedomain.InvoiceStatusCancelled,
		"superseded_by_id": replacementID,
		"cancel_reason":    invoicedomain.CancelReasonSuperseded,
		"cancelled_at":     now,
		"updated_at":       now,
	})
}

// Finalize moves a draft to finalized.
func (s *Service) Finalize(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByIDForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if item == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if item.Status != invoicedomain.InvoiceStatusDraft {
			return invoicedomain.ErrInvalidStatusTransition
		}
		now := s.clock.Now()
		return s.repo.Update(ctx, tx, invoiceID, map[string]any{
			"status":       invoicedomain.InvoiceStatusFinalized,
			"finalized_at": now,
			"updated_at":   now,
		})
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	s.metrics.RecordInvoiceSaved(ctx, string(invoicedomain.InvoiceStatusFinalized))
	return s.find(ctx, invoiceID)
}

// MarkCancelled cancels an invoice without issuing a replacement.
func (s *Service) MarkCancelled(ctx context.Context, id string, reason string) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "manual"
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByIDForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if item == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if item.Status == invoicedomain.InvoiceStatusCancelled {
			return invoicedomain.ErrInvoiceCancelled
		}
		now := s.clock.Now()
		return s.repo.Update(ctx, tx, invoiceID, map[string]any{
			"status":        invoicedomain.InvoiceStatusCancelled,
			"cancel_reason": reason,
			"cancelled_at":  now,
			"updated_at":    now,
		})
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	s.metrics.RecordInvoiceCancelled(ctx, reason)
	return s.find(ctx, invoiceID)
}

// SetShopifyOrderNumber annotates the invoice with the storefront order it
// was paid through. Amounts are untouched.
func (s *Service) SetShopifyOrderNumber(ctx context.Context, id string, orderNumber string) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidOrderNumber
	}

	err = s.repo.Update(ctx, s.db, invoiceID, map[string]any{
		"shopify_order_number": orderNumber,
		"updated_at":           s.clock.Now(),
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return s.find(ctx, invoiceID)
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return s.find(ctx, invoiceID)
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	if req.Status != "" && !req.Status.Valid() {
		return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidStatus
	}
	filter := invoicedomain.ListInvoiceFilter{
		Status:        req.Status,
		CustomerTaxID: customerdomain.CustomerInfo{TaxID: req.CustomerTaxID}.Normalize().TaxID,
	}
	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}

	items, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.Limit(), func(inv *invoicedomain.Invoice) pagination.Cursor {
		return pagination.Cursor{ID: inv.ID.String(), CreatedAt: inv.CreatedAt.Format(time.RFC3339)}
	})

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}
	return invoicedomain.ListInvoiceResponse{PageInfo: pageInfo, Invoices: invoices}, nil
}

// LoadIntoCart replaces the live cart with the frozen lines of an invoice
// so it can be edited, and restores its pricing inputs.
func (s *Service) LoadIntoCart(ctx context.Context, id string) error {
	invoice, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !invoice.Editable() {
		return invoicedomain.ErrInvoiceCancelled
	}
	items, err := invoice.Items()
	if err != nil {
		return err
	}

	if err := s.store.SetPricingContext(ctx, pricing.Context{
		CountryCode:     invoice.CountryCode,
		ApplyRecharge:   invoice.ApplyRecharge,
		IncludeShipping: invoice.IncludeShipping,
	}); err != nil {
		return err
	}
	if err := s.store.BulkLoad(ctx, items); err != nil {
		return err
	}

	logger.WithInvoice(s.log, invoice.ID.String(), invoice.InvoiceNumber).
		Info("invoice loaded into cart", zap.Int("lines", len(items)))
	return nil
}

// Document returns the PDF stored when the invoice was saved.
func (s *Service) Document(ctx context.Context, id string) (invoicedomain.InvoiceDocument, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.InvoiceDocument{}, err
	}
	doc, err := s.repo.FindDocument(ctx, s.db, invoiceID)
	if err != nil {
		return invoicedomain.InvoiceDocument{}, err
	}
	if doc == nil {
		return invoicedomain.InvoiceDocument{}, invoicedomain.ErrDocumentNotFound
	}
	return *doc, nil
}

// AdvanceReceipt renders the receipt for the advance of a pre-order.
func (s *Service) AdvanceReceipt(ctx context.Context, id string) ([]byte, error) {
	invoice, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !invoice.PreSale {
		return nil, invoicedomain.ErrNotPreSale
	}
	items, err := invoice.Items()
	if err != nil {
		return nil, err
	}
	return s.pdf.GenerateAdvanceReceipt(ctx, pdf.ReceiptData{
		InvoiceData: s.documentData(invoice, items),
		DatePaid:    s.clock.Now(),
	})
}

func (s *Service) documentData(invoice invoicedomain.Invoice, items []cartdomain.LineItem) pdf.InvoiceData {
	data := pdf.InvoiceData{
		Issuer: pdf.Issuer{
			Name:        s.cfg.IssuerName,
			TaxID:       s.cfg.IssuerTaxID,
			Address:     s.cfg.IssuerAddress,
			Email:       s.cfg.IssuerEmail,
			BankDetails: s.cfg.BankDetails,
		},
		InvoiceNumber: invoice.InvoiceNumber,
		IssuedAt:      invoice.IssuedAt,
		Status:        string(invoice.Status),
		Currency:      invoice.Currency,
		Customer:      invoice.Customer.Data(),
		Items:         items,
		Totals:        invoice.Totals(),
		PreSale:       invoice.PreSaleAmounts(),
	}
	if invoice.ShopifyOrderNumber != nil {
		data.ShopifyOrderNumber = *invoice.ShopifyOrderNumber
	}
	return data
}

func (s *Service) find(ctx context.Context, id snowflake.ID) (invoicedomain.Invoice, error) {
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if item == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
	}
	return *item, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidInvoiceID
	}
	return id, nil
}
