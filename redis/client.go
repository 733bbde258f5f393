package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pankajvermacr7/rediskit/logging"
	"github.com/pankajvermacr7/rediskit/sentry"
	"github.com/rs/zerolog"
)

// RedisClient owns the connection pool and implements KeyOperations.
// It is safe for concurrent use.
type RedisClient struct {
	client     *redis.Client
	codec      Codec
	logger     zerolog.Logger
	sink       EventSink
	defaultTTL time.Duration
	opTimeout  time.Duration
	closeOnce  sync.Once
}

// Option customizes a RedisClient.
type Option func(*RedisClient)

// WithCodec replaces the default JSON codec.
func WithCodec(codec Codec) Option {
	return func(rc *RedisClient) {
		if codec != nil {
			rc.codec = codec
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(rc *RedisClient) {
		rc.logger = logger
	}
}

// WithMetrics installs m as a command hook on the pool.
func WithMetrics(m *Metrics) Option {
	return func(rc *RedisClient) {
		if m != nil {
			rc.client.AddHook(m)
		}
	}
}

// WithEventSink receives an event after every successful key mutation.
func WithEventSink(sink EventSink) Option {
	return func(rc *RedisClient) {
		if sink != nil {
			rc.sink = sink
		}
	}
}

// NewRedisClient initializes a new Redis client with the given configuration.
// The pool lives until Close is called.
func NewRedisClient(config Config, opts ...Option) (*RedisClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}
	if config.DefaultTTL == 0 {
		config.DefaultTTL = DefaultExpire
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Address(),
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.ConnectionTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolTimeout:  config.ConnectionTimeout,
		MaxRetries:   -1,
	})

	rc := &RedisClient{
		client:     client,
		codec:      JSONCodec{},
		logger:     logging.NewLogger(),
		sink:       noopSink{},
		defaultTTL: config.DefaultTTL,
		opTimeout:  config.OperationTimeout,
	}
	for _, opt := range opts {
		opt(rc)
	}

	// Test the connection
	ctx := context.Background()
	if config.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.ConnectionTimeout)
		defer cancel()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w: %w", config.Address(), ErrConnection, err)
	}

	rc.logger.Info().Str("addr", config.Address()).Int("pool_size", config.PoolSize).Msg("Connected to Redis")

	return rc, nil
}

// Ping checks that the server is reachable.
func (rc *RedisClient) Ping(ctx context.Context) error {
	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()
	if err := rc.client.Ping(ctx).Err(); err != nil {
		return rc.fail("PING", "", err)
	}
	return nil
}

// Close releases the connection pool. Calling it more than once is safe.
func (rc *RedisClient) Close() error {
	var err error
	rc.closeOnce.Do(func() {
		err = rc.client.Close()
		rc.logger.Info().Msg("Redis connection pool closed")
	})
	return err
}

// Codec returns the codec used by the typed views.
func (rc *RedisClient) Codec() Codec { return rc.codec }

// DefaultTTL is applied by ValueOps.Set when no TTL is given.
func (rc *RedisClient) DefaultTTL() time.Duration { return rc.defaultTTL }

// withTimeout bounds ctx by the configured operation timeout unless the
// caller already set a deadline.
func (rc *RedisClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if rc.opTimeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, rc.opTimeout)
}

// fail wraps err for the caller and reports transport failures.
func (rc *RedisClient) fail(command, key string, err error) error {
	wrapped := WrapError(command, key, err)
	if IsConnectionError(err) {
		eventID := sentry.CaptureCommandError(wrapped, command, key)
		rc.logger.Warn().
			Err(err).
			Str("command", command).
			Str("key", key).
			Str("sentry_event_id", eventID).
			Msg("Redis command failed")
	}
	return wrapped
}

func (rc *RedisClient) emit(ctx context.Context, ev KeyEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	rc.sink.KeyChanged(ctx, ev)
}
