package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	cartdomain "github.com/smallbiznis/orderdesk/internal/cart/domain"
	"go.uber.org/zap"
)

const defaultRedisTTL = 30 * 24 * time.Hour

// Redis stores cart states as plain keys and announces every write on a
// pub/sub channel named after the key.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Redis{client: client, ttl: ttl, log: log.Named("cart.redis")}
}

func channel(key string) string {
	return key + ":changed"
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cartdomain.ErrStateNotFound
		}
		return nil, err
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, value, r.ttl)
	pipe.Publish(ctx, channel(key), "1")
	_, err := pipe.Exec(ctx)
	return err
}

// Subscribe listens on the key's channel until the returned function is
// called or ctx is done.
func (r *Redis) Subscribe(ctx context.Context, key string, onChange func()) (func(), error) {
	sub := r.client.Subscribe(ctx, channel(key))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				onChange()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			if err := sub.Close(); err != nil {
				r.log.Debug("closing cart subscription", zap.Error(err))
			}
		})
	}, nil
}
