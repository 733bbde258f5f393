package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// expiration turns a caller TTL into the go-redis SET argument: zero means
// the client default, a negative TTL means none.
func (rc *RedisClient) expiration(ttl time.Duration) time.Duration {
	switch {
	case ttl == 0:
		return rc.defaultTTL
	case ttl < 0:
		return 0
	}
	return ttl
}

// BytesOps reads and writes string keys holding already encoded bytes.
type BytesOps struct {
	rc *RedisClient
}

// Bytes returns a view that bypasses the codec.
func (rc *RedisClient) Bytes() *BytesOps {
	return &BytesOps{rc: rc}
}

// Get retrieves the value of a key from Redis.
func (b *BytesOps) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := b.rc.withTimeout(ctx)
	defer cancel()

	val, err := b.rc.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, b.rc.fail("GET", key, err)
	}
	return val, nil
}

// Set sets a value for a key in Redis with an optional expiration time.
func (b *BytesOps) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := b.rc.withTimeout(ctx)
	defer cancel()

	if err := b.rc.client.Set(ctx, key, value, b.rc.expiration(ttl)).Err(); err != nil {
		return b.rc.fail("SET", key, err)
	}
	return nil
}

// SetIfAbsent writes value only when key does not exist yet.
func (b *BytesOps) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ctx, cancel := b.rc.withTimeout(ctx)
	defer cancel()

	ok, err := b.rc.client.SetNX(ctx, key, value, b.rc.expiration(ttl)).Result()
	if err != nil {
		return false, b.rc.fail("SETNX", key, err)
	}
	return ok, nil
}

// ValueOps stores one encoded T per key.
type ValueOps[T any] struct {
	rc    *RedisClient
	bytes *BytesOps
}

func NewValueOps[T any](rc *RedisClient) *ValueOps[T] {
	return &ValueOps[T]{rc: rc, bytes: rc.Bytes()}
}

// Get decodes the value at key. An absent key yields ErrNotFound.
func (v *ValueOps[T]) Get(ctx context.Context, key string) (T, error) {
	var out T
	data, err := v.bytes.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := v.rc.codec.Decode(data, &out); err != nil {
		return out, WrapError("GET", key, err)
	}
	return out, nil
}

// Set stores value. A zero ttl applies the client default TTL and a negative
// ttl (such as NotExpire) stores the key without expiry.
func (v *ValueOps[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	data, err := v.rc.codec.Encode(value)
	if err != nil {
		return WrapError("SET", key, err)
	}
	return v.bytes.Set(ctx, key, data, ttl)
}

func (v *ValueOps[T]) SetIfAbsent(ctx context.Context, key string, value T, ttl time.Duration) (bool, error) {
	data, err := v.rc.codec.Encode(value)
	if err != nil {
		return false, WrapError("SETNX", key, err)
	}
	return v.bytes.SetIfAbsent(ctx, key, data, ttl)
}

// GetAndSet stores value and returns the previous one. The boolean is false
// when key did not exist before. The key loses any TTL it had.
func (v *ValueOps[T]) GetAndSet(ctx context.Context, key string, value T) (T, bool, error) {
	var old T
	data, err := v.rc.codec.Encode(value)
	if err != nil {
		return old, false, WrapError("GETSET", key, err)
	}

	ctx, cancel := v.rc.withTimeout(ctx)
	defer cancel()

	prev, err := v.rc.client.GetSet(ctx, key, data).Bytes()
	if err == redis.Nil {
		return old, false, nil
	}
	if err != nil {
		return old, false, v.rc.fail("GETSET", key, err)
	}
	if err := v.rc.codec.Decode(prev, &old); err != nil {
		return old, true, WrapError("GETSET", key, err)
	}
	return old, true, nil
}

// MultiGet fetches several keys in one round-trip. Absent keys are left out
// of the result.
func (v *ValueOps[T]) MultiGet(ctx context.Context, keys ...string) (map[string]T, error) {
	out := make(map[string]T, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	ctx, cancel := v.rc.withTimeout(ctx)
	defer cancel()

	vals, err := v.rc.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, v.rc.fail("MGET", keyLabel(keys), err)
	}
	for i, raw := range vals {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		var item T
		if err := v.rc.codec.Decode([]byte(s), &item); err != nil {
			return nil, WrapError("MGET", keys[i], err)
		}
		out[keys[i]] = item
	}
	return out, nil
}

// Increment increases the value of a key by the given amount. Initializes the key if it doesn't exist.
func (rc *RedisClient) Increment(ctx context.Context, key string, amount int64) (int64, error) {
	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()

	val, err := rc.client.IncrBy(ctx, key, amount).Result()
	if err != nil {
		return 0, rc.fail("incrementing key", key, err)
	}
	return val, nil
}

// Decrement decreases the value of a key by the given amount. Initializes the key if it doesn't exist.
func (rc *RedisClient) Decrement(ctx context.Context, key string, amount int64) (int64, error) {
	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()

	val, err := rc.client.DecrBy(ctx, key, amount).Result()
	if err != nil {
		return 0, rc.fail("decrementing key", key, err)
	}
	return val, nil
}
