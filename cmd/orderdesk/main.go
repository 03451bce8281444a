package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderdesk/internal/cart"
	"github.com/smallbiznis/orderdesk/internal/catalog"
	"github.com/smallbiznis/orderdesk/internal/clock"
	"github.com/smallbiznis/orderdesk/internal/config"
	"github.com/smallbiznis/orderdesk/internal/consistency"
	"github.com/smallbiznis/orderdesk/internal/customer"
	"github.com/smallbiznis/orderdesk/internal/invoice"
	"github.com/smallbiznis/orderdesk/internal/migration"
	"github.com/smallbiznis/orderdesk/internal/observability"
	"github.com/smallbiznis/orderdesk/internal/observability/logger"
	"github.com/smallbiznis/orderdesk/internal/providers/pdf"
	"github.com/smallbiznis/orderdesk/internal/ratetable"
	"github.com/smallbiznis/orderdesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		ratetable.Module,

		// Functional domains
		catalog.Module,
		cart.Module,
		consistency.Module,
		customer.Module,
		pdf.Module,
		invoice.Module,

		fx.Invoke(LogCartChanges),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.Invoice.SnowflakeNode)
}

// LogCartChanges reports every cart mutation, local or from another process.
func LogCartChanges(lc fx.Lifecycle, store *cart.Store, log *zap.Logger) {
	log = logger.WithCart(log.Named("cart.events"), store.Key())
	unsubscribe := store.Subscribe(func(ev cart.Event) {
		log.Debug("cart changed",
			zap.String("event", string(ev.Type)),
			zap.Int("lines", len(ev.Items)),
			zap.String("grand_total", ev.Totals.Rounded().GrandTotal.StringFixed(2)),
		)
	})
	lc.Append(fx.StopHook(unsubscribe))
}
