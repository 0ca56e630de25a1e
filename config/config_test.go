package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "content-api", cfg.App.Name)
	assert.Equal(t, 10*time.Second, cfg.App.ShutdownTimeout)
	assert.Equal(t, 30*time.Second, cfg.Cache.ListTTL)
	assert.Equal(t, 100, cfg.Query.MaxLimit)
	assert.Equal(t, 10, cfg.Query.DefaultLimit)
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.CronEnabled())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("CACHE_LIST_TTL", "5s")
	t.Setenv("QUERY_MAX_LIMIT", "50")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("SENTRY_SAMPLE_RATE", "0.25")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 5*time.Second, cfg.Cache.ListTTL)
	assert.Equal(t, 50, cfg.Query.MaxLimit)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 0.25, cfg.Sentry.SampleRate)
	assert.False(t, cfg.CronEnabled(), "cron never runs under APP_ENV=test")
	assert.Equal(t, "localhost:6379", cfg.RedisAddress())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"default above max", map[string]string{"QUERY_DEFAULT_LIMIT": "20", "QUERY_MAX_LIMIT": "10"}},
		{"unknown backend", map[string]string{"CACHE_BACKEND": "memcached"}},
		{"default secret in production", map[string]string{"APP_ENV": "production"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
