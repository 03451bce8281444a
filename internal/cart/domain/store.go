package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound    = errors.New("cart_item_not_found")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrStateNotFound   = errors.New("cart_state_not_found")
)

// Persistence is the durable key-value slot behind a cart. Set stores the
// encoded cart, Get returns ErrStateNotFound when nothing was stored yet,
// and Subscribe reports writes made by other processes or sessions.
type Persistence interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Subscribe(ctx context.Context, key string, onChange func()) (unsubscribe func(), err error)
}

// Product is the subset of a catalog variant needed to add it to a cart.
type Product struct {
	ProductID   string
	SKU         string
	Title       string
	CategoryTag string
	UnitPrice   decimal.Decimal
}

// AddItemRequest is the input of Store.AddItem.
type AddItemRequest struct {
	Product  Product
	Quantity int
	Size     string
	Color    string
}

// Backfill is what a catalog lookup can restore on a legacy line.
type Backfill struct {
	ProductID   string
	SKU         string
	CategoryTag string
}

// Backfiller resolves identity fields missing from legacy invoice lines.
type Backfiller interface {
	Backfill(ctx context.Context, item LineItem) (Backfill, bool)
}
