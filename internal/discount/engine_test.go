package discount

import (
	"testing"

	"github.com/shopspring/decimal"
	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	"github.com/smallbiznis/orderdesk/internal/ratetable"
	"github.com/stretchr/testify/assert"
)

func TestCalculateDiscountTiers(t *testing.T) {
	cases := []struct {
		qty  int
		want int
	}{
		{1, 0},
		{2, 30},
		{15, 30},
		{16, 35},
		{51, 35},
		{52, 40},
		{250, 40},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CalculateDiscount(ratetable.CategoryWholesale, tc.qty), "qty=%d", tc.qty)
	}
}

func TestCalculateDiscountFailsClosed(t *testing.T) {
	for _, qty := range []int{0, -1, -52} {
		assert.Equal(t, 0, CalculateDiscount(ratetable.CategoryWholesale, qty))
	}
	assert.Equal(t, 0, CalculateDiscount("", 20))
	assert.Equal(t, 0, CalculateDiscount("Accessories", 20))
	// exact match only
	assert.Equal(t, 0, CalculateDiscount("wholesale", 20))
}

func TestCalculateDiscountIsMonotonic(t *testing.T) {
	prev := 0
	for qty := 1; qty <= 120; qty++ {
		got := CalculateDiscount(ratetable.CategoryB2B, qty)
		assert.GreaterOrEqual(t, got, prev, "qty=%d", qty)
		prev = got
	}
}

func TestRecomputeAggregatesSiblings(t *testing.T) {
	items := []cartdomain.LineItem{
		{ID: "a", ProductID: "p1", CategoryTag: ratetable.CategoryWholesale, Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
		{ID: "b", ProductID: "p1", CategoryTag: ratetable.CategoryWholesale, Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
		{ID: "c", ProductID: "p2", CategoryTag: ratetable.CategoryWholesale, Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
	}

	out := Recompute(items)

	assert.Equal(t, 30, out[0].DiscountPercent)
	assert.Equal(t, 30, out[1].DiscountPercent)
	assert.Equal(t, 0, out[2].DiscountPercent)
	// input untouched
	assert.Equal(t, 0, items[0].DiscountPercent)
}

func TestRecomputeForProductOnlyTouchesProduct(t *testing.T) {
	items := []cartdomain.LineItem{
		{ID: "a", ProductID: "p1", CategoryTag: ratetable.CategoryWholesale, Quantity: 10},
		{ID: "b", ProductID: "p1", CategoryTag: ratetable.CategoryWholesale, Quantity: 6},
		{ID: "c", ProductID: "p2", CategoryTag: ratetable.CategoryWholesale, Quantity: 5, DiscountPercent: 99},
	}

	out := defaultEngine.RecomputeForProduct(items, ratetable.CategoryWholesale, "p1")

	assert.Equal(t, 35, out[0].DiscountPercent)
	assert.Equal(t, 35, out[1].DiscountPercent)
	assert.Equal(t, 99, out[2].DiscountPercent)
}

func TestRecomputeLineMatchesRecompute(t *testing.T) {
	items := []cartdomain.LineItem{
		{ID: "a", ProductID: "p1", CategoryTag: ratetable.CategoryWholesale, Quantity: 10},
		{ID: "b", ProductID: "p1", CategoryTag: ratetable.CategoryWholesale, Quantity: 6},
		{ID: "c", CategoryTag: ratetable.CategoryWholesale, Quantity: 2},
	}
	full := defaultEngine.Recompute(items)

	for idx := range items {
		out := defaultEngine.RecomputeLine(items, idx)
		assert.Equal(t, full[idx].DiscountPercent, out[idx].DiscountPercent, "line %s", items[idx].ID)
	}
	assert.Equal(t, 30, defaultEngine.RecomputeLine(items, 2)[2].DiscountPercent)
	assert.Equal(t, 0, defaultEngine.RecomputeLine(items, 2)[0].DiscountPercent, "other lines untouched")
	assert.Len(t, defaultEngine.RecomputeLine(items, 7), 3)
}

func TestEngineUsesCustomTiers(t *testing.T) {
	tables := ratetable.Default()
	tables.DiscountTiers = []ratetable.DiscountTier{
		{MinQuantity: 10, Percent: 25},
		{MinQuantity: 1, Percent: 0},
	}
	e := NewEngine(tables)
	assert.Equal(t, 0, e.CalculateDiscount(ratetable.CategoryWholesale, 9))
	assert.Equal(t, 25, e.CalculateDiscount(ratetable.CategoryWholesale, 10))
}

func TestAggregateQuantitiesSkipsInvalid(t *testing.T) {
	totals := AggregateQuantities([]cartdomain.LineItem{
		{ProductID: "p1", Quantity: 3},
		{ProductID: "p1", Quantity: 0},
		{ProductID: "", Quantity: 4},
		{ProductID: "p2", Quantity: 2},
	})
	assert.Equal(t, map[string]int{"p1": 3, "p2": 2}, totals)
}
