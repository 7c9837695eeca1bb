package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"STORE_DRIVER", "LOCK_DRIVER", "INVOICE_GRACE_PERIOD", "DEFAULT_PLAN_STACKING", "CATALOG_CACHE_TTL", "OTEL_ENABLED", "INVOICE_SWEEP_BATCH", "COUPON_RATE_LIMIT", "COUPON_RATE_BURST"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	// Empty values are still "set", so getEnv returns them; the typed helpers fall back.
	assert.Equal(t, 24*time.Hour, cfg.Billing.InvoiceGracePeriod)
	assert.Equal(t, 5*time.Minute, cfg.Billing.CatalogCacheTTL)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Infra.LockTTL)
	assert.Equal(t, 200, cfg.Billing.InvoiceSweepBatch)
	assert.Equal(t, 5.0, cfg.Billing.CouponRateLimit)
	assert.Equal(t, 10, cfg.Billing.CouponRateBurst)
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"36h", 36 * time.Hour},
		{"90", 90 * time.Second},
		{"soon", time.Minute},
		{"", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.raw)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION", time.Minute))
		})
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOCK_DRIVER", "redis")
	t.Setenv("DEFAULT_PLAN_STACKING", "replace")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("GO_ENV", "production")
	t.Setenv("INVOICE_SWEEP_SCHEDULE", "*/5 * * * *")
	t.Setenv("COUPON_RATE_LIMIT", "0.5")

	cfg := Load()
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "redis", cfg.Infra.LockDriver)
	assert.Equal(t, "replace", cfg.Billing.DefaultPlanStacking)
	assert.True(t, cfg.Tracing.Enabled)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "*/5 * * * *", cfg.Billing.InvoiceSweepSchedule)
	assert.Equal(t, 0.5, cfg.Billing.CouponRateLimit)
}
