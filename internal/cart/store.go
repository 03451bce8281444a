package cart

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	"github.com/smallbiznis/orderdesk/internal/discount"
	"github.com/smallbiznis/orderdesk/internal/observability/metrics"
	"github.com/smallbiznis/orderdesk/internal/pricing"
	"github.com/smallbiznis/orderdesk/internal/ratetable"
	"go.uber.org/zap"
)

// DefaultCartID is the fixed identifier of the storefront cart.
const DefaultCartID = "orderdesk"

// EventType names what changed in the store.
type EventType string

const (
	EventItemsChanged  EventType = "items_changed"
	EventTotalsChanged EventType = "totals_changed"
)

// Event is delivered to observers after a change has been applied.
type Event struct {
	Type   EventType
	Items  []cartdomain.LineItem
	Totals pricing.Totals
}

// Options configures a Store.
type Options struct {
	CartID      string
	Persistence cartdomain.Persistence
	Rates       ratetable.Provider
	Backfiller  cartdomain.Backfiller
	Log         *zap.Logger
	Metrics     *metrics.Metrics
}

// Store is the live, observable, persisted collection of cart lines.
// Mutations are applied only after the new state has been persisted.
type Store struct {
	mu       sync.Mutex
	key      string
	items    []cartdomain.LineItem
	pricing  pricing.Context
	lastSync []byte

	persistence cartdomain.Persistence
	rates       ratetable.Provider
	backfiller  cartdomain.Backfiller
	log         *zap.Logger
	metrics     *metrics.Metrics

	obsMu     sync.Mutex
	observers map[int]func(Event)
	nextObs   int

	unsubscribe func()
}

// New builds an empty store. Call Load to restore the persisted state.
func New(opts Options) *Store {
	cartID := strings.TrimSpace(opts.CartID)
	if cartID == "" {
		cartID = DefaultCartID
	}
	rates := opts.Rates
	if rates == nil {
		rates = ratetable.Static(ratetable.Default())
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		key:         "cart:" + cartID,
		persistence: opts.Persistence,
		rates:       rates,
		backfiller:  opts.Backfiller,
		log:         log.Named("cart.store"),
		metrics:     opts.Metrics,
		observers:   make(map[int]func(Event)),
	}
}

// Key is the persistence key of this cart.
func (s *Store) Key() string { return s.key }

// Load restores the persisted state. A missing state leaves the cart empty.
func (s *Store) Load(ctx context.Context) error {
	if s.persistence == nil {
		return nil
	}
	data, err := s.persistence.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, cartdomain.ErrStateNotFound) {
			return nil
		}
		return err
	}
	return s.applyRemote(data)
}

// Watch subscribes to writes made elsewhere and reloads on change.
func (s *Store) Watch(ctx context.Context) error {
	if s.persistence == nil {
		return nil
	}
	unsubscribe, err := s.persistence.Subscribe(ctx, s.key, func() {
		if err := s.Load(context.Background()); err != nil {
			s.log.Warn("cart reload failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
	return nil
}

// Close stops watching the persistence adapter.
func (s *Store) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Subscribe registers fn for every change event and returns a function that
// removes it. fn runs synchronously on the mutating goroutine.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// Items returns a copy of the current lines.
func (s *Store) Items() []cartdomain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cartdomain.CloneItems(s.items)
}

// PricingContext returns the country and flags used for live totals.
func (s *Store) PricingContext() pricing.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pricing
}

// Totals recomputes the live totals from the current lines.
func (s *Store) Totals() pricing.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalsLocked()
}

// Snapshot returns lines and totals read under one lock.
func (s *Store) Snapshot() ([]cartdomain.LineItem, pricing.Totals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cartdomain.CloneItems(s.items), s.totalsLocked()
}

// SnapshotFor is Snapshot with totals priced under pc instead of the stored
// pricing context. Nothing is written.
func (s *Store) SnapshotFor(pc pricing.Context) ([]cartdomain.LineItem, pricing.Totals) {
	pc.CountryCode = ratetable.NormalizeCountry(pc.CountryCode)
	s.mu.Lock()
	defer s.mu.Unlock()
	return cartdomain.CloneItems(s.items), s.totalsWith(pc)
}

func (s *Store) totalsLocked() pricing.Totals {
	return s.totalsWith(s.pricing)
}

func (s *Store) totalsWith(pc pricing.Context) pricing.Totals {
	calc := pricing.NewCalculator(s.rates.Get())
	return calc.CalculateTotals(pricing.Params{Items: s.items, Context: pc})
}

// SetPricingContext changes the country and flags used for live totals.
func (s *Store) SetPricingContext(ctx context.Context, pc pricing.Context) error {
	pc.CountryCode = ratetable.NormalizeCountry(pc.CountryCode)
	return s.mutate(ctx, func(items []cartdomain.LineItem, _ *discount.Engine) ([]cartdomain.LineItem, *pricing.Context, error) {
		return items, &pc, nil
	})
}

// AddItem merges the variant into an existing line or appends a new one,
// then refreshes the discount of every line of the same product. A quantity
// below one is ignored.
func (s *Store) AddItem(ctx context.Context, req cartdomain.AddItemRequest) error {
	if req.Quantity < 1 {
		return nil
	}
	product := req.Product
	if product.UnitPrice.IsNegative() {
		product.UnitPrice = decimal.Zero
	}
	key := cartdomain.ItemKey(product.ProductID, req.Size, req.Color)

	return s.mutate(ctx, func(items []cartdomain.LineItem, engine *discount.Engine) ([]cartdomain.LineItem, *pricing.Context, error) {
		idx := indexOf(items, key)
		if idx >= 0 {
			items[idx].Quantity += req.Quantity
		} else {
			idx = len(items)
			items = append(items, cartdomain.LineItem{
				ID:              key,
				ProductID:       product.ProductID,
				SKU:             product.SKU,
				Title:           product.Title,
				CategoryTag:     product.CategoryTag,
				Quantity:        req.Quantity,
				UnitPrice:       product.UnitPrice,
				DiscountPercent: engine.CalculateDiscount(product.CategoryTag, req.Quantity),
				Size:            strings.TrimSpace(req.Size),
				Color:           strings.TrimSpace(req.Color),
			})
		}
		return engine.RecomputeLine(items, idx), nil, nil
	})
}

// UpdateQuantityAndRecompute overwrites a line's quantity and refreshes the
// discount of its product in the same step.
func (s *Store) UpdateQuantityAndRecompute(ctx context.Context, itemID string, quantity int) error {
	if quantity < 1 {
		return cartdomain.ErrInvalidQuantity
	}
	return s.mutate(ctx, func(items []cartdomain.LineItem, engine *discount.Engine) ([]cartdomain.LineItem, *pricing.Context, error) {
		idx := indexOf(items, itemID)
		if idx < 0 {
			return nil, nil, cartdomain.ErrItemNotFound
		}
		items[idx].Quantity = quantity
		return engine.RecomputeLine(items, idx), nil, nil
	})
}

// RemoveItem drops a line and refreshes the discount of its siblings.
func (s *Store) RemoveItem(ctx context.Context, itemID string) error {
	return s.mutate(ctx, func(items []cartdomain.LineItem, engine *discount.Engine) ([]cartdomain.LineItem, *pricing.Context, error) {
		idx := indexOf(items, itemID)
		if idx < 0 {
			return nil, nil, cartdomain.ErrItemNotFound
		}
		removed := items[idx]
		items = append(items[:idx], items[idx+1:]...)
		return engine.RecomputeForProduct(items, removed.CategoryTag, removed.ProductID), nil, nil
	})
}

// RemoveAll empties the cart. The pricing context is kept.
func (s *Store) RemoveAll(ctx context.Context) error {
	return s.mutate(ctx, func([]cartdomain.LineItem, *discount.Engine) ([]cartdomain.LineItem, *pricing.Context, error) {
		return []cartdomain.LineItem{}, nil, nil
	})
}

// BulkLoad replaces the cart with items, typically the frozen lines of an
// invoice being edited. Present product id, category and sku are kept;
// missing ones are backfilled from the catalog when possible. Lines that
// cannot be resolved still load, at 0% discount.
func (s *Store) BulkLoad(ctx context.Context, items []cartdomain.LineItem) error {
	prepared := s.prepareBulk(ctx, items)
	return s.mutate(ctx, func(_ []cartdomain.LineItem, engine *discount.Engine) ([]cartdomain.LineItem, *pricing.Context, error) {
		return engine.Recompute(prepared), nil, nil
	})
}

func (s *Store) prepareBulk(ctx context.Context, items []cartdomain.LineItem) []cartdomain.LineItem {
	out := make([]cartdomain.LineItem, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			s.log.Warn("skipping cart line with invalid quantity",
				zap.String("item_id", item.ID),
				zap.Int("quantity", item.Quantity),
			)
			continue
		}
		if item.UnitPrice.IsNegative() {
			item.UnitPrice = decimal.Zero
		}
		item = s.backfill(ctx, item)
		if strings.TrimSpace(item.ID) == "" {
			item.ID = cartdomain.ItemKey(lo.Ternary(item.ProductID != "", item.ProductID, item.SKU), item.Size, item.Color)
		}
		if idx := indexOf(out, item.ID); idx >= 0 {
			out[idx].Quantity += item.Quantity
			continue
		}
		out = append(out, item)
	}
	return out
}

func (s *Store) backfill(ctx context.Context, item cartdomain.LineItem) cartdomain.LineItem {
	if item.ProductID != "" && item.CategoryTag != "" && item.SKU != "" {
		return item
	}
	if s.backfiller != nil {
		if found, ok := s.backfiller.Backfill(ctx, item); ok {
			if item.ProductID == "" {
				item.ProductID = found.ProductID
			}
			if item.CategoryTag == "" {
				item.CategoryTag = found.CategoryTag
			}
			if item.SKU == "" {
				item.SKU = found.SKU
			}
		}
	}
	missing := make([]string, 0, 2)
	if item.ProductID == "" {
		missing = append(missing, "product_id")
	}
	if item.CategoryTag == "" {
		missing = append(missing, "category_tag")
	}
	for _, field := range missing {
		s.metrics.RecordBackfillMissed(ctx, field)
		s.log.Warn("legacy cart line could not be backfilled, discount falls back to 0%",
			zap.String("item_id", item.ID),
			zap.String("sku", item.SKU),
			zap.String("missing", field),
		)
	}
	return item
}

type mutation func(items []cartdomain.LineItem, engine *discount.Engine) ([]cartdomain.LineItem, *pricing.Context, error)

// mutate runs fn on a copy of the lines, persists the result and only then
// swaps it in. Observers are notified after the lock is released.
func (s *Store) mutate(ctx context.Context, fn mutation) error {
	s.mu.Lock()
	rates := s.rates.Get()
	engine := discount.NewEngine(rates)
	before := s.totalsLocked()

	items, pc, err := fn(cartdomain.CloneItems(s.items), engine)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	next := state{Items: items, Pricing: s.pricing}
	if pc != nil {
		next.Pricing = *pc
	}
	encoded, err := encodeState(next)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if s.persistence != nil {
		if err := s.persistence.Set(ctx, s.key, encoded); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	itemsChanged := !sameItems(s.items, next.Items)
	s.items = next.Items
	s.pricing = next.Pricing
	s.lastSync = encoded
	after := s.totalsLocked()
	snapshot := cartdomain.CloneItems(s.items)
	s.mu.Unlock()

	s.emit(snapshot, before, after, itemsChanged)
	return nil
}

// applyRemote swaps in a state read from persistence unless it is the one
// this store wrote last.
func (s *Store) applyRemote(data []byte) error {
	s.mu.Lock()
	if bytes.Equal(data, s.lastSync) {
		s.mu.Unlock()
		return nil
	}
	decoded, err := decodeState(data)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	before := s.totalsLocked()
	itemsChanged := !sameItems(s.items, decoded.Items)
	s.items = decoded.Items
	s.pricing = decoded.Pricing
	s.lastSync = append([]byte(nil), data...)
	after := s.totalsLocked()
	snapshot := cartdomain.CloneItems(s.items)
	s.mu.Unlock()

	s.emit(snapshot, before, after, itemsChanged)
	return nil
}

func (s *Store) emit(items []cartdomain.LineItem, before, after pricing.Totals, itemsChanged bool) {
	s.obsMu.Lock()
	ids := lo.Keys(s.observers)
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.observers[id])
	}
	s.obsMu.Unlock()

	totalsChanged := !totalsEqual(before, after)
	for _, fn := range fns {
		if itemsChanged {
			fn(Event{Type: EventItemsChanged, Items: items, Totals: after})
		}
		if totalsChanged {
			fn(Event{Type: EventTotalsChanged, Items: items, Totals: after})
		}
	}
}

func indexOf(items []cartdomain.LineItem, id string) int {
	_, idx, ok := lo.FindIndexOf(items, func(item cartdomain.LineItem) bool {
		return item.ID == id
	})
	if !ok {
		return -1
	}
	return idx
}

func sameItems(a, b []cartdomain.LineItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.ProductID != y.ProductID || x.SKU != y.SKU ||
			x.Title != y.Title || x.CategoryTag != y.CategoryTag ||
			x.Quantity != y.Quantity || x.DiscountPercent != y.DiscountPercent ||
			x.Size != y.Size || x.Color != y.Color || !x.UnitPrice.Equal(y.UnitPrice) {
			return false
		}
	}
	return true
}

func totalsEqual(a, b pricing.Totals) bool {
	return a.SubtotalExclTax.Equal(b.SubtotalExclTax) &&
		a.VATAmount.Equal(b.VATAmount) &&
		a.SurchargeAmount.Equal(b.SurchargeAmount) &&
		a.ShippingAmount.Equal(b.ShippingAmount) &&
		a.GrandTotal.Equal(b.GrandTotal)
}
