package cart

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	"github.com/smallbiznis/orderdesk/internal/cart/persistence"
	"github.com/smallbiznis/orderdesk/internal/config"
	"github.com/smallbiznis/orderdesk/internal/observability/metrics"
	"github.com/smallbiznis/orderdesk/internal/ratetable"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("cart",
	fx.Provide(providePersistence),
	fx.Provide(provideStore),
)

type PersistenceParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	DB        *gorm.DB
	Log       *zap.Logger
}

func providePersistence(p PersistenceParams) (cartdomain.Persistence, error) {
	switch p.Config.Cart.Backend {
	case config.CartBackendMemory:
		return persistence.NewMemory(), nil
	case config.CartBackendDatabase:
		return persistence.NewGorm(p.DB), nil
	case config.CartBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     p.Config.RedisAddr,
			Password: p.Config.RedisPassword,
			DB:       p.Config.RedisDB,
		})
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
		return persistence.NewRedis(client, p.Config.Cart.TTL, p.Log), nil
	default:
		return nil, fmt.Errorf("unsupported cart backend %q", p.Config.Cart.Backend)
	}
}

type StoreParams struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Config      config.Config
	Persistence cartdomain.Persistence
	Rates       ratetable.Provider
	Backfiller  cartdomain.Backfiller `optional:"true"`
	Log         *zap.Logger
	Metrics     *metrics.Metrics `optional:"true"`
}

func provideStore(p StoreParams) *Store {
	store := New(Options{
		CartID:      p.Config.Cart.ID,
		Persistence: p.Persistence,
		Rates:       p.Rates,
		Backfiller:  p.Backfiller,
		Log:         p.Log,
		Metrics:     p.Metrics,
	})

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.Load(ctx); err != nil {
				return err
			}
			// the start context is cancelled once startup finishes
			return store.Watch(context.WithoutCancel(ctx))
		},
		OnStop: func(context.Context) error {
			store.Close()
			return nil
		},
	})
	return store
}
