// Package consistency compares what the buyer confirmed with what the live
// cart holds right before an invoice is written.
package consistency

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/orderdesk/internal/cart"
	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	"github.com/smallbiznis/orderdesk/internal/pricing"
)

// ErrSnapshotDiverged means the cart changed after the buyer saw it. The
// caller should refresh and retry.
var ErrSnapshotDiverged = errors.New("snapshot_diverged")

// TotalTolerance is the largest total drift that still passes.
var TotalTolerance = decimal.RequireFromString("1.00")

// Result describes how far a snapshot is from the live cart. LiveItems and
// LiveTotals are the exact values the snapshot was compared against; a
// caller that writes must write these and not read the cart again.
type Result struct {
	Blocked        bool
	ItemCountDelta int
	TotalDelta     decimal.Decimal

	LiveItems  []cartdomain.LineItem
	LiveTotals pricing.Totals
}

// Err is ErrSnapshotDiverged when the result is blocked.
func (r Result) Err() error {
	if !r.Blocked {
		return nil
	}
	return fmt.Errorf("%w: %d line(s) differ, total differs by %s",
		ErrSnapshotDiverged, r.ItemCountDelta, r.TotalDelta.String())
}

// Reason names why the check blocked, for logs and metrics.
func (r Result) Reason() string {
	switch {
	case !r.Blocked:
		return ""
	case r.ItemCountDelta > 0:
		return "item_count"
	default:
		return "total"
	}
}

// LiveSource is the part of the cart store the guard reads.
type LiveSource interface {
	Snapshot() ([]cartdomain.LineItem, pricing.Totals)
	SnapshotFor(pc pricing.Context) ([]cartdomain.LineItem, pricing.Totals)
}

var _ LiveSource = (*cart.Store)(nil)

// Guard reads the live cart at check time.
type Guard struct {
	Store LiveSource
}

func NewGuard(store *cart.Store) *Guard {
	return &Guard{Store: store}
}

// CheckConsistency blocks when the number of lines differs at all, or when
// the grand totals differ by more than TotalTolerance. A difference of
// exactly TotalTolerance passes.
func (g *Guard) CheckConsistency(snapshotItems []cartdomain.LineItem, snapshotTotals pricing.Totals) Result {
	liveItems, liveTotals := g.Store.Snapshot()
	return Compare(snapshotItems, snapshotTotals, liveItems, liveTotals)
}

// CheckConsistencyFor prices the live cart under pc, the context the buyer
// saw, without storing pc in the cart.
func (g *Guard) CheckConsistencyFor(pc pricing.Context, snapshotItems []cartdomain.LineItem, snapshotTotals pricing.Totals) Result {
	liveItems, liveTotals := g.Store.SnapshotFor(pc)
	return Compare(snapshotItems, snapshotTotals, liveItems, liveTotals)
}

// Compare is CheckConsistency against explicit live values. Grand totals are
// compared unrounded.
func Compare(snapshotItems []cartdomain.LineItem, snapshotTotals pricing.Totals, liveItems []cartdomain.LineItem, liveTotals pricing.Totals) Result {
	countDelta := len(snapshotItems) - len(liveItems)
	if countDelta < 0 {
		countDelta = -countDelta
	}
	totalDelta := liveTotals.GrandTotal.Sub(snapshotTotals.GrandTotal).Abs()

	return Result{
		Blocked:        countDelta > 0 || totalDelta.GreaterThan(TotalTolerance),
		ItemCountDelta: countDelta,
		TotalDelta:     totalDelta,
		LiveItems:      liveItems,
		LiveTotals:     liveTotals,
	}
}
