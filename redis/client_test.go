package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	tests := []struct {
		name     string
		config   func() Config
		sentinel error
	}{
		{
			name: "invalid config",
			config: func() Config {
				c := DefaultConfig()
				c.Port = 0
				return c
			},
		},
		{
			name: "unreachable server",
			config: func() Config {
				c := DefaultConfig()
				c.Host = "127.0.0.1"
				c.Port = 1
				c.ConnectionTimeout = 500 * time.Millisecond
				return c
			},
			sentinel: ErrConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewRedisClient(tt.config())
			assert.Error(t, err)
			assert.Nil(t, client)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			} else {
				assert.NotErrorIs(t, err, ErrConnection)
			}
		})
	}
}

func TestExpiration(t *testing.T) {
	rc := &RedisClient{defaultTTL: time.Hour}

	assert.Equal(t, time.Hour, rc.expiration(0))
	assert.Equal(t, time.Duration(0), rc.expiration(NotExpire))
	assert.Equal(t, time.Duration(0), rc.expiration(-time.Minute))
	assert.Equal(t, 5*time.Second, rc.expiration(5*time.Second))
}

func TestWithTimeout(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		rc := &RedisClient{}
		ctx, cancel := rc.withTimeout(context.Background())
		defer cancel()
		_, ok := ctx.Deadline()
		assert.False(t, ok)
	})

	t.Run("applied without caller deadline", func(t *testing.T) {
		rc := &RedisClient{opTimeout: time.Second}
		ctx, cancel := rc.withTimeout(context.Background())
		defer cancel()
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 100*time.Millisecond)
	})

	t.Run("caller deadline wins", func(t *testing.T) {
		rc := &RedisClient{opTimeout: time.Second}
		parent, parentCancel := context.WithTimeout(context.Background(), time.Minute)
		defer parentCancel()

		ctx, cancel := rc.withTimeout(parent)
		defer cancel()
		deadline, _ := ctx.Deadline()
		want, _ := parent.Deadline()
		assert.Equal(t, want, deadline)
	})
}

func TestUniqueKeys(t *testing.T) {
	assert.Empty(t, uniqueKeys(nil))
	assert.Equal(t, []string{"a"}, uniqueKeys([]string{"a"}))
	assert.Equal(t, []string{"a", "b"}, uniqueKeys([]string{"a", "b", "a", "b"}))
}

func TestKeyLabel(t *testing.T) {
	assert.Equal(t, "k1", keyLabel([]string{"k1"}))
	assert.Equal(t, "k1 (+2 more)", keyLabel([]string{"k1", "k2", "k3"}))
}

func TestDeleteAll_EmptyIsNoop(t *testing.T) {
	// No pool is needed: an empty key set never reaches the server.
	rc := &RedisClient{sink: noopSink{}}
	n, err := rc.DeleteAll(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, n)
}
