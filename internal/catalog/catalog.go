// Package catalog indexes the storefront product feed and resolves cart
// lines against it.
package catalog

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/smallbiznis/orderdesk/internal/cache"
	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	"github.com/smallbiznis/orderdesk/internal/catalog/domain"
	"github.com/smallbiznis/orderdesk/internal/ratetable"
	"go.uber.org/zap"
)

// Catalog is a read-mostly index over the product feed.
type Catalog struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	bySKU    map[string]string

	rates    ratetable.Provider
	resolved cache.Cache[cartdomain.Backfill]
	log      *zap.Logger
}

// New returns an empty catalog. cacheTTL bounds how long backfill results
// are reused.
func New(rates ratetable.Provider, cacheTTL time.Duration, log *zap.Logger) *Catalog {
	if rates == nil {
		rates = ratetable.Static(ratetable.Default())
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{
		products: map[string]domain.Product{},
		bySKU:    map[string]string{},
		rates:    rates,
		resolved: cache.NewTTLCache[cartdomain.Backfill](cacheTTL),
		log:      log.Named("catalog"),
	}
}

// Replace swaps the indexed products and drops cached lookups.
func (c *Catalog) Replace(products []domain.Product) {
	byID := make(map[string]domain.Product, len(products))
	bySKU := make(map[string]string)
	for _, p := range products {
		byID[p.ProductID] = p
		for _, v := range p.Variants {
			if sku := strings.TrimSpace(v.SKU); sku != "" {
				bySKU[strings.ToLower(sku)] = p.ProductID
			}
		}
	}

	c.mu.Lock()
	c.products = byID
	c.bySKU = bySKU
	c.mu.Unlock()

	c.resolved.Flush()
	c.log.Info("catalog replaced", zap.Int("products", len(byID)), zap.Int("skus", len(bySKU)))
}

// LoadFeed parses data and replaces the catalog with it.
func (c *Catalog) LoadFeed(data []byte) error {
	products, err := ParseFeed(data)
	if err != nil {
		return err
	}
	c.Replace(products)
	return nil
}

// LoadFeedFile reads a feed export from path.
func (c *Catalog) LoadFeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog feed: %w", err)
	}
	return c.LoadFeed(data)
}

// Products returns every product, in no particular order.
func (c *Catalog) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Values(c.products)
}

// Product looks a product up by id.
func (c *Catalog) Product(productID string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[strings.TrimSpace(productID)]
	return p, ok
}

// ProductBySKU returns the product owning sku and the matching variant.
func (c *Catalog) ProductBySKU(sku string) (domain.Product, domain.Variant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.bySKU[strings.ToLower(strings.TrimSpace(sku))]
	if !ok {
		return domain.Product{}, domain.Variant{}, false
	}
	p := c.products[id]
	v, ok := lo.Find(p.Variants, func(v domain.Variant) bool {
		return strings.EqualFold(strings.TrimSpace(v.SKU), strings.TrimSpace(sku))
	})
	return p, v, ok
}

// EligibleCategory returns the first tag of p that is a discount category.
// The comparison is exact and case-sensitive; "wholesale" is not eligible.
func (c *Catalog) EligibleCategory(p domain.Product) string {
	tables := c.rates.Get()
	tag, _ := lo.Find(p.CategoryTags, tables.IsDiscountCategory)
	return tag
}

// AddItemRequest builds the cart input for one variant of a product.
func (c *Catalog) AddItemRequest(productID, size, color string, quantity int) (cartdomain.AddItemRequest, error) {
	p, ok := c.Product(productID)
	if !ok {
		return cartdomain.AddItemRequest{}, domain.ErrProductNotFound
	}
	v, ok := p.Variant(size, color)
	if !ok {
		if len(p.Variants) != 1 || size != "" || color != "" {
			return cartdomain.AddItemRequest{}, domain.ErrVariantNotFound
		}
		v = p.Variants[0]
	}
	return cartdomain.AddItemRequest{
		Product: cartdomain.Product{
			ProductID:   p.ProductID,
			SKU:         v.SKU,
			Title:       p.Title,
			CategoryTag: c.EligibleCategory(p),
			UnitPrice:   v.PriceExclVAT,
		},
		Quantity: quantity,
		Size:     v.Size,
		Color:    v.Color,
	}, nil
}
