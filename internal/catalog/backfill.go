package catalog

import (
	"context"
	"strings"

	"github.com/smallbiznis/orderdesk/internal/cache"
	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	"github.com/smallbiznis/orderdesk/internal/catalog/domain"
	"github.com/smallbiznis/orderdesk/internal/ratetable"
	"go.uber.org/zap"
)

var _ cartdomain.Backfiller = (*Catalog)(nil)

// Backfill restores the product id, sku and category of a legacy line that
// was saved before those fields existed. The line is matched by product id,
// then by sku. The category comes from an exact eligible tag when the
// product has one, otherwise from the vocabulary of tag fragments.
func (c *Catalog) Backfill(_ context.Context, item cartdomain.LineItem) (cartdomain.Backfill, bool) {
	key := cache.Key(item.ProductID, item.SKU)
	if key == "" {
		return cartdomain.Backfill{}, false
	}
	if found, ok := c.resolved.Get(key); ok {
		return found, true
	}

	var (
		product domain.Product
		variant domain.Variant
		ok      bool
	)
	if item.ProductID != "" {
		product, ok = c.Product(item.ProductID)
		if ok {
			variant, _ = product.Variant(item.Size, item.Color)
		}
	}
	if !ok && item.SKU != "" {
		product, variant, ok = c.ProductBySKU(item.SKU)
	}
	if !ok {
		c.log.Debug("no catalog match for legacy line",
			zap.String("product_id", item.ProductID),
			zap.String("sku", item.SKU),
		)
		return cartdomain.Backfill{}, false
	}

	category := c.EligibleCategory(product)
	if category == "" {
		category = MatchVocabulary(c.rates.Get(), product.CategoryTags)
	}

	found := cartdomain.Backfill{
		ProductID:   product.ProductID,
		SKU:         variant.SKU,
		CategoryTag: category,
	}
	c.resolved.Set(key, found, 0)
	return found, true
}

// MatchVocabulary maps legacy tags onto a discount category by looking for
// any configured fragment, case-insensitively. Vocabulary order wins.
func MatchVocabulary(tables ratetable.Tables, tags []string) string {
	for _, alias := range tables.BackfillVocabulary {
		needle := strings.ToLower(strings.TrimSpace(alias.Needle))
		if needle == "" {
			continue
		}
		for _, tag := range tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				return alias.Category
			}
		}
	}
	return ""
}
