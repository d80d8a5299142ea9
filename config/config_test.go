package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collector.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
  encoding: json
sources:
  fred:
    api_key: abc123
    base_url: https://api.stlouisfed.org/fred
    cache_ttl: 5m
    rate_limit:
      requests_per_minute: 120
      burst_limit: 10
    retry:
      max_attempts: 5
      initial_delay: 2s
    breaker:
      failure_threshold: 3
      timeout: 30s
  treasury:
    rate_limit:
      requests_per_hour: 1000
`)

	f, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", f.Logger.Level)
	assert.Equal(t, "json", f.Logger.Encoding)

	fred, ok := f.Source("fred")
	require.True(t, ok)
	assert.Equal(t, "abc123", fred.APIKey)
	assert.Equal(t, 5*time.Minute, fred.CacheTTL)
	assert.Equal(t, 120, fred.RateLimit.RequestsPerMinute)
	assert.Equal(t, 10, fred.RateLimit.BurstLimit)
	assert.Equal(t, 5, fred.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, fred.Retry.InitialDelay)
	assert.Equal(t, 3, fred.Breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, fred.Breaker.Timeout)

	treasury, ok := f.Source("treasury")
	require.True(t, ok)
	assert.Empty(t, treasury.APIKey, "key-less sources are allowed")
	assert.Equal(t, 1000, treasury.RateLimit.RequestsPerHour)
}

func TestLoad_FillsDefaults(t *testing.T) {
	path := writeConfig(t, `
sources:
  eia:
    rate_limit:
      requests_per_second: 2
`)

	f, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", f.Logger.Level)
	assert.Equal(t, "console", f.Logger.Encoding)

	eia, _ := f.Source("eia")
	assert.Equal(t, 60*time.Second, eia.RateLimit.CooldownPeriod)
	assert.Equal(t, 3, eia.Retry.MaxAttempts)
	assert.Equal(t, time.Second, eia.Retry.InitialDelay)
	assert.Equal(t, 2.0, eia.Retry.BackoffFactor)
	assert.Equal(t, 5, eia.Breaker.FailureThreshold)
	assert.Equal(t, 60*time.Second, eia.Breaker.Timeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_SourceWithoutWindows(t *testing.T) {
	path := writeConfig(t, `
sources:
  fdic:
    api_key: key
    rate_limit:
      burst_limit: 5
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fdic")
	assert.Contains(t, err.Error(), "rate_limit")
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
sources:
  fred:
    api_key: from-file
    rate_limit:
      requests_per_minute: 60
`)

	t.Setenv("FINCOLLECT_SOURCES_FRED_API_KEY", "from-env")

	f, err := Load(path)
	require.NoError(t, err)

	fred, _ := f.Source("fred")
	assert.Equal(t, "from-env", fred.APIKey)
}

func TestSource_Unknown(t *testing.T) {
	f := &File{Sources: map[string]SourceConfig{}}
	_, ok := f.Source("nope")
	assert.False(t, ok)
}
