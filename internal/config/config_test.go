package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("CART_BACKEND", "")

	cfg := Load()

	assert.Equal(t, "orderdesk", cfg.AppName)
	assert.Equal(t, CartBackendDatabase, cfg.Cart.Backend)
	assert.Equal(t, "orderdesk", cfg.Cart.ID)
	assert.Equal(t, 30*24*time.Hour, cfg.Cart.TTL)
	assert.Equal(t, "INV-{YYYY}-{SEQ5}", cfg.Invoice.NumberTemplate)
	assert.Equal(t, "EUR", cfg.Invoice.Currency)
}

func TestLoadPicksRedisWhenConfigured(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CART_BACKEND", "")

	assert.Equal(t, CartBackendRedis, Load().Cart.Backend)
}

func TestLoadExplicitBackendWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CART_BACKEND", "SQL")
	t.Setenv("CART_TTL", "2h")

	cfg := Load()
	assert.Equal(t, CartBackendDatabase, cfg.Cart.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Cart.TTL)
}

func TestGetenvBool(t *testing.T) {
	t.Setenv("SOME_FLAG", "yes")
	assert.True(t, GetenvBool("SOME_FLAG", false))
	t.Setenv("SOME_FLAG", "garbage")
	assert.True(t, GetenvBool("SOME_FLAG", true))
}
