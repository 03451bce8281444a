package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestItemKeyIsDeterministic(t *testing.T) {
	a := ItemKey("prod-1", "XL", "Navy Blue")
	b := ItemKey("prod-1", " xl ", "navy blue")
	assert.Equal(t, a, b)
	assert.Equal(t, "prod-1|xl|navy-blue", a)

	assert.NotEqual(t, a, ItemKey("prod-1", "L", "Navy Blue"))
	assert.Equal(t, "prod-1|-|-", ItemKey("prod-1", "", ""))
}

func TestItemKeyKeepsProductIDVerbatim(t *testing.T) {
	assert.NotEqual(t, ItemKey("ABC", "", ""), ItemKey("abc", "", ""))
	assert.NotEqual(t, ItemKey("p/1", "", ""), ItemKey("p-1", "", ""))
	assert.Equal(t, "ABC|m|-", ItemKey("ABC", "M", ""))

	// The separator inside an id cannot forge another variant's key.
	assert.NotEqual(t, ItemKey("a|m", "", ""), ItemKey("a", "m", ""))
	assert.Equal(t, `a\|m|-|-`, ItemKey("a|m", "", ""))
}

func TestLineTotalAppliesDiscount(t *testing.T) {
	item := LineItem{Quantity: 2, UnitPrice: decimal.NewFromInt(100), DiscountPercent: 30}
	assert.True(t, decimal.NewFromInt(140).Equal(item.LineTotal()))
	assert.True(t, decimal.NewFromInt(200).Equal(item.ListTotal()))

	item.DiscountPercent = 0
	assert.True(t, decimal.NewFromInt(200).Equal(item.LineTotal()))
}

func TestValidRejectsBadLines(t *testing.T) {
	assert.False(t, LineItem{Quantity: 0, UnitPrice: decimal.NewFromInt(1)}.Valid())
	assert.False(t, LineItem{Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}.Valid())
	assert.True(t, LineItem{Quantity: 1, UnitPrice: decimal.Zero}.Valid())
}
