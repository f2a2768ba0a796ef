package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := FromEnv()

		assert.Equal(t, ":3000", cfg.Addr)
		assert.Equal(t, "./keys.json", cfg.Identity.KeyFile)
		assert.Empty(t, cfg.DWN.Endpoint)
		assert.Equal(t, 4, cfg.DWN.Concurrency)
		assert.Zero(t, cfg.DWN.ReconcileRetries)
		assert.Equal(t, 5*time.Minute, cfg.Resolver.CacheTTL)
		assert.Equal(t, "http://localhost:3000", cfg.ExternalURL())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("DCX_ADDR", ":9000")
		t.Setenv("EXTERNAL_HOSTNAME", "issuer.example.com")
		t.Setenv("EXTERNAL_PORT", "443")
		t.Setenv("DID_SERVICE_ENDPOINTS", "https://dwn.example.com, ,https://dwn2.example.com")
		t.Setenv("DWN_TIMEOUT", "2s")
		t.Setenv("RECONCILE_RETRIES", "3")
		t.Setenv("DID_CACHE_SIZE", "64")

		cfg := FromEnv()

		assert.Equal(t, ":9000", cfg.Addr)
		assert.Equal(t, "https://issuer.example.com", cfg.ExternalURL())
		assert.Equal(t, []string{"https://dwn.example.com", "https://dwn2.example.com"}, cfg.Identity.ServiceEndpoints)
		assert.Equal(t, 2*time.Second, cfg.DWN.Timeout)
		assert.Equal(t, uint64(3), cfg.DWN.ReconcileRetries)
		assert.Equal(t, 64, cfg.Resolver.CacheSize)
	})

	t.Run("malformed values fall back", func(t *testing.T) {
		t.Setenv("DWN_TIMEOUT", "soon")
		t.Setenv("DWN_CONCURRENCY", "-2")

		cfg := FromEnv()

		assert.Equal(t, 10*time.Second, cfg.DWN.Timeout)
		assert.Equal(t, 4, cfg.DWN.Concurrency)
	})
}
