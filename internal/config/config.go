package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Infra    InfraConfig
	Billing  BillingConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	JwtSecret          string
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "memory"
	Connection string
}

type InfraConfig struct {
	NatsURL    string
	RedisURL   string
	LockDriver string // "local" or "redis"
	LockTTL    time.Duration
}

type BillingConfig struct {
	InvoiceGracePeriod  time.Duration
	DefaultPlanStacking string
	CatalogCacheTTL     time.Duration

	// InvoiceSweepSchedule is a cron spec for expiring overdue invoices; empty disables the sweep.
	InvoiceSweepSchedule string
	InvoiceSweepBatch    int

	// CouponRateLimit is requests per second per client on the coupon endpoints; 0 disables it.
	CouponRateLimit float64
	CouponRateBurst int
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("STORE_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Infra: InfraConfig{
			NatsURL:    getEnv("NATS_URL", ""),
			RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379"),
			LockDriver: getEnv("LOCK_DRIVER", "local"),
			LockTTL:    getEnvAsDuration("LOCK_TTL", 10*time.Second),
		},
		Billing: BillingConfig{
			InvoiceGracePeriod:   getEnvAsDuration("INVOICE_GRACE_PERIOD", 24*time.Hour),
			DefaultPlanStacking:  getEnv("DEFAULT_PLAN_STACKING", "extend"),
			CatalogCacheTTL:      getEnvAsDuration("CATALOG_CACHE_TTL", 5*time.Minute),
			InvoiceSweepSchedule: getEnv("INVOICE_SWEEP_SCHEDULE", "@every 1m"),
			InvoiceSweepBatch:    getEnvAsInt("INVOICE_SWEEP_BATCH", 200),
			CouponRateLimit:      getEnvAsFloat("COUPON_RATE_LIMIT", 5),
			CouponRateBurst:      getEnvAsInt("COUPON_RATE_BURST", 10),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("36h") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs := getEnvAsInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Warn: invalid duration %s=%q, using %s", key, raw, fallback)
	return fallback
}
