package persistence

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	redis "github.com/redis/go-redis/v9"
	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func adapters(t *testing.T) map[string]cartdomain.Persistence {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&CartState{}))

	return map[string]cartdomain.Persistence{
		"memory": NewMemory(),
		"redis":  NewRedis(client, time.Hour, zap.NewNop()),
		"gorm":   NewGorm(db),
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	for name, p := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := p.Get(ctx, "cart:missing")
			assert.ErrorIs(t, err, cartdomain.ErrStateNotFound)

			require.NoError(t, p.Set(ctx, "cart:a", []byte{0x01, 0x02}))
			require.NoError(t, p.Set(ctx, "cart:a", []byte{0x03}))

			got, err := p.Get(ctx, "cart:a")
			require.NoError(t, err)
			assert.Equal(t, []byte{0x03}, got)
		})
	}
}

func TestPersistenceNotifiesSubscribers(t *testing.T) {
	for name, p := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var calls atomic.Int32
			unsubscribe, err := p.Subscribe(ctx, "cart:b", func() { calls.Add(1) })
			require.NoError(t, err)

			require.NoError(t, p.Set(ctx, "cart:b", []byte("x")))
			assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

			unsubscribe()
			unsubscribe()
		})
	}
}
