package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	"github.com/smallbiznis/orderdesk/internal/catalog/domain"
	"github.com/smallbiznis/orderdesk/internal/ratetable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const feedJSON = `{
  "products": [
    {
      "product_id": "gid-100",
      "title": "Merino Crew",
      "category_tags": ["Knitwear", "Wholesale"],
      "variants": [
        {"sku": "MER-S-NVY", "size": "S", "color": "Navy", "price_excl_vat": "10.00", "stock": 12},
        {"sku": "MER-M-NVY", "size": "M", "color": "Navy", "price_excl_vat": "10.00", "stock": 4}
      ]
    },
    {
      "product_id": "gid-200",
      "title": "Canvas Tote",
      "category_tags": ["ropa mayorista 2023"],
      "variants": [{"sku": "TOTE-1", "price_excl_vat": "6.50", "stock": 40}]
    },
    {
      "product_id": "gid-300",
      "title": "Gift Card",
      "category_tags": ["wholesale"],
      "variants": [{"sku": "GIFT", "price_excl_vat": "25", "stock": 0}]
    }
  ]
}`

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := New(ratetable.Static(ratetable.Default()), time.Minute, zap.NewNop())
	require.NoError(t, c.LoadFeed([]byte(feedJSON)))
	return c
}

func TestParseFeedAcceptsArrayAndEnvelope(t *testing.T) {
	products, err := ParseFeed([]byte(`[{"product_id":"a","variants":[]}]`))
	require.NoError(t, err)
	assert.Len(t, products, 1)

	products, err = ParseFeed([]byte(feedJSON))
	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.True(t, products[0].Variants[0].PriceExclVAT.Equal(decimal.NewFromInt(10)))
}

func TestParseFeedRejectsInvalid(t *testing.T) {
	for name, data := range map[string]string{
		"empty":          "",
		"malformed":      "{",
		"missing id":     `[{"title":"x"}]`,
		"negative price": `[{"product_id":"a","variants":[{"sku":"a","price_excl_vat":"-1"}]}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFeed([]byte(data))
			assert.ErrorIs(t, err, domain.ErrInvalidFeed)
		})
	}
}

func TestEligibleCategoryIsExact(t *testing.T) {
	c := newTestCatalog(t)

	p, ok := c.Product("gid-100")
	require.True(t, ok)
	assert.Equal(t, ratetable.CategoryWholesale, c.EligibleCategory(p))

	p, _ = c.Product("gid-300")
	assert.Equal(t, "", c.EligibleCategory(p), "lower-case tag must not be eligible")
}

func TestAddItemRequest(t *testing.T) {
	c := newTestCatalog(t)

	req, err := c.AddItemRequest("gid-100", "m", "navy", 3)
	require.NoError(t, err)
	assert.Equal(t, "MER-M-NVY", req.Product.SKU)
	assert.Equal(t, ratetable.CategoryWholesale, req.Product.CategoryTag)
	assert.Equal(t, 3, req.Quantity)
	assert.Equal(t, "M", req.Size)

	req, err = c.AddItemRequest("gid-200", "", "", 1)
	require.NoError(t, err)
	assert.Equal(t, "TOTE-1", req.Product.SKU)
	assert.Equal(t, "", req.Product.CategoryTag)

	_, err = c.AddItemRequest("gid-100", "XL", "Navy", 1)
	assert.ErrorIs(t, err, domain.ErrVariantNotFound)

	_, err = c.AddItemRequest("nope", "", "", 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestBackfillBySKUUsesVocabulary(t *testing.T) {
	c := newTestCatalog(t)

	found, ok := c.Backfill(context.Background(), cartdomain.LineItem{SKU: "tote-1"})
	require.True(t, ok)
	assert.Equal(t, "gid-200", found.ProductID)
	assert.Equal(t, "TOTE-1", found.SKU)
	assert.Equal(t, ratetable.CategoryWholesale, found.CategoryTag)

	found, ok = c.Backfill(context.Background(), cartdomain.LineItem{ProductID: "gid-300"})
	require.True(t, ok)
	assert.Equal(t, ratetable.CategoryWholesale, found.CategoryTag, "legacy path matches case-insensitively")
}

func TestBackfillPrefersExactTag(t *testing.T) {
	c := newTestCatalog(t)

	found, ok := c.Backfill(context.Background(), cartdomain.LineItem{ProductID: "gid-100", Size: "S", Color: "Navy"})
	require.True(t, ok)
	assert.Equal(t, ratetable.CategoryWholesale, found.CategoryTag)
	assert.Equal(t, "MER-S-NVY", found.SKU)
}

func TestBackfillMisses(t *testing.T) {
	c := newTestCatalog(t)

	_, ok := c.Backfill(context.Background(), cartdomain.LineItem{})
	assert.False(t, ok)
	_, ok = c.Backfill(context.Background(), cartdomain.LineItem{SKU: "UNKNOWN"})
	assert.False(t, ok)
}

func TestReplaceFlushesResolvedCache(t *testing.T) {
	c := newTestCatalog(t)
	_, ok := c.Backfill(context.Background(), cartdomain.LineItem{SKU: "TOTE-1"})
	require.True(t, ok)

	c.Replace(nil)

	_, ok = c.Backfill(context.Background(), cartdomain.LineItem{SKU: "TOTE-1"})
	assert.False(t, ok)
	assert.Empty(t, c.Products())
}

func TestMatchVocabulary(t *testing.T) {
	tables := ratetable.Default()
	assert.Equal(t, ratetable.CategoryB2B, MatchVocabulary(tables, []string{"Coleccion B2B"}))
	assert.Equal(t, ratetable.CategoryWholesale, MatchVocabulary(tables, []string{"MAYORISTA"}))
	assert.Equal(t, "", MatchVocabulary(tables, []string{"retail"}))
}

func TestLoadFeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte(feedJSON), 0o600))

	c := New(nil, 0, nil)
	require.NoError(t, c.LoadFeedFile(path))
	_, _, ok := c.ProductBySKU("GIFT")
	assert.True(t, ok)

	assert.Error(t, c.LoadFeedFile(filepath.Join(t.TempDir(), "missing.json")))
}
