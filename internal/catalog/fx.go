package catalog

import (
	"context"

	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	"github.com/smallbiznis/orderdesk/internal/config"
	"github.com/smallbiznis/orderdesk/internal/ratetable"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("catalog",
	fx.Provide(provide),
	fx.Provide(func(c *Catalog) cartdomain.Backfiller { return c }),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Rates     ratetable.Provider
	Log       *zap.Logger
}

func provide(p Params) *Catalog {
	c := New(p.Rates, p.Config.Catalog.CacheTTL, p.Log)
	feedPath := p.Config.Catalog.FeedPath
	if feedPath == "" {
		return c
	}
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return c.LoadFeedFile(feedPath)
		},
	})
	return c
}
