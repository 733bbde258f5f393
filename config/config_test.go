package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pankajvermacr7/rediskit/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, int64(86400), cfg.Redis.DefaultTTLSeconds)
	assert.Equal(t, int64(-1), cfg.Redis.NoTTLSentinel)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Events.Enabled)

	rc := cfg.RedisClientConfig()
	assert.Equal(t, redis.DefaultExpire, rc.DefaultTTL)
	assert.Equal(t, 5*time.Second, rc.ConnectionTimeout)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
redis:
  host: cache.internal
  port: 6380
  db: 2
  pool_size: 20
  read_timeout: 1s
  operation_timeout: 250ms
  default_ttl_seconds: 3600
logging:
  level: debug
events:
  enabled: true
  brokers: ["kafka-1:9092", "kafka-2:9092"]
  topic: cache-events
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	rc := cfg.RedisClientConfig()
	assert.Equal(t, "cache.internal:6380", rc.Address())
	assert.Equal(t, 2, rc.DB)
	assert.Equal(t, 20, rc.PoolSize)
	assert.Equal(t, time.Second, rc.ReadTimeout)
	assert.Equal(t, 250*time.Millisecond, rc.OperationTimeout)
	assert.Equal(t, time.Hour, rc.DefaultTTL)
	assert.Equal(t, "debug", cfg.Logging.Level)

	ec := cfg.EventsProducerConfig()
	assert.True(t, ec.Enabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, ec.Brokers)
	assert.Equal(t, "cache-events", ec.Topic)
	assert.True(t, ec.ProducerSettings.Async)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
redis:
  host: cache.internal
`)
	t.Setenv("REDISKIT_REDIS_HOST", "override.internal")
	t.Setenv("REDISKIT_REDIS_PORT", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "override.internal", cfg.Redis.Host)
	assert.Equal(t, 7000, cfg.Redis.Port)
}

func TestLoadSentryEnvOverrides(t *testing.T) {
	t.Setenv("REDISKIT_SENTRY_DSN", "https://key@sentry.example.com/1")
	t.Setenv("REDISKIT_SENTRY_IS_ENABLED", "true")
	t.Setenv("REDISKIT_SENTRY_RELEASE", "v1.2.3")
	t.Setenv("REDISKIT_SENTRY_PROFILES_SAMPLE_RATE", "0.5")
	t.Setenv("REDISKIT_SENTRY_ENABLE_TRACING", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://key@sentry.example.com/1", cfg.Sentry.DSN)
	assert.True(t, cfg.Sentry.IsEnabled)
	assert.Equal(t, "v1.2.3", cfg.Sentry.Release)
	assert.Equal(t, 0.5, cfg.Sentry.ProfilesSampleRate)
	assert.True(t, cfg.Sentry.EnableTracing)
	assert.Equal(t, "dev", cfg.Sentry.Environment)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "wrong no-ttl sentinel",
			body: "redis:\n  no_ttl_sentinel: 0\n",
		},
		{
			name: "non-positive default ttl",
			body: "redis:\n  default_ttl_seconds: 0\n",
		},
		{
			name: "bad port",
			body: "redis:\n  port: 0\n",
		},
		{
			name: "events without brokers",
			body: "events:\n  enabled: true\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
