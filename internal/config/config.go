package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Cart    CartConfig
	Catalog CatalogConfig
	Invoice InvoiceConfig
}

// CartConfig controls where the live cart is persisted.
type CartConfig struct {
	ID      string
	Backend string
	TTL     time.Duration
}

// CatalogConfig points at the product feed export.
type CatalogConfig struct {
	FeedPath string
	CacheTTL time.Duration
}

// InvoiceConfig holds the issuer details printed on invoices.
type InvoiceConfig struct {
	NumberTemplate string
	Currency       string
	IssuerName     string
	IssuerTaxID    string
	IssuerAddress  string
	IssuerEmail    string
	BankDetails    string
	SnowflakeNode  int64
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "orderdesk"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "orderdesk"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		Cart: CartConfig{
			ID:      strings.TrimSpace(getenv("CART_ID", "orderdesk")),
			Backend: normalizeBackend(getenv("CART_BACKEND", "")),
			TTL:     getenvDuration("CART_TTL", 30*24*time.Hour),
		},
		Catalog: CatalogConfig{
			FeedPath: strings.TrimSpace(getenv("CATALOG_FEED_PATH", "")),
			CacheTTL: getenvDuration("CATALOG_CACHE_TTL", 10*time.Minute),
		},
		Invoice: InvoiceConfig{
			NumberTemplate: getenv("INVOICE_NUMBER_TEMPLATE", "INV-{YYYY}-{SEQ5}"),
			Currency:       strings.ToUpper(getenv("INVOICE_CURRENCY", "EUR")),
			IssuerName:     getenv("INVOICE_ISSUER_NAME", "Orderdesk"),
			IssuerTaxID:    getenv("INVOICE_ISSUER_TAX_ID", ""),
			IssuerAddress:  getenv("INVOICE_ISSUER_ADDRESS", ""),
			IssuerEmail:    getenv("INVOICE_ISSUER_EMAIL", ""),
			BankDetails:    getenv("INVOICE_BANK_DETAILS", ""),
			SnowflakeNode:  getenvInt64("SNOWFLAKE_NODE", 1),
		},
	}

	if cfg.Cart.Backend == "" {
		cfg.Cart.Backend = CartBackendDatabase
		if cfg.RedisAddr != "" {
			cfg.Cart.Backend = CartBackendRedis
		}
	}

	return cfg
}

const (
	CartBackendRedis    = "redis"
	CartBackendDatabase = "database"
	CartBackendMemory   = "memory"
)

func normalizeBackend(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case CartBackendRedis, CartBackendDatabase, CartBackendMemory:
		return value
	case "db", "sql":
		return CartBackendDatabase
	default:
		return ""
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

// GetenvBool is exported for packages that read their own toggles.
func GetenvBool(key string, def bool) bool {
	return getenvBool(key, def)
}
