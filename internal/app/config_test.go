package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/meridian-erp/meridian-erp/testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 15*time.Second, cfg.AppReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.AppRequestTimeout)
	assert.Equal(t, 5*time.Minute, cfg.ReportCacheTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("REPORT_CACHE_TTL", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":9090", cfg.AppAddr)
	assert.Equal(t, 30*time.Second, cfg.ReportCacheTTL)
}

func TestInTestMode(t *testing.T) {
	t.Setenv("MERIDIAN_TEST_MODE", "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv("MERIDIAN_TEST_MODE", "")
	RefreshTestMode()
	assert.False(t, InTestMode())

	RefreshTestMode()
}
