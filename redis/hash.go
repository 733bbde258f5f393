package redis

import (
	"context"
	"sort"
)

// HashOps maps raw string fields to encoded T values under one key.
type HashOps[T any] struct {
	rc *RedisClient
}

func NewHashOps[T any](rc *RedisClient) *HashOps[T] {
	return &HashOps[T]{rc: rc}
}

// Put sets a single field.
func (h *HashOps[T]) Put(ctx context.Context, key, field string, value T) error {
	return h.PutAll(ctx, key, map[string]T{field: value})
}

// PutAll sets several fields in one HSET.
func (h *HashOps[T]) PutAll(ctx context.Context, key string, values map[string]T) error {
	if len(values) == 0 {
		return nil
	}
	args := make(map[string]interface{}, len(values))
	for field, value := range values {
		data, err := h.rc.codec.Encode(value)
		if err != nil {
			return WrapError("HSET", key, err)
		}
		args[field] = data
	}

	ctx, cancel := h.rc.withTimeout(ctx)
	defer cancel()

	if err := h.rc.client.HSet(ctx, key, args).Err(); err != nil {
		return h.rc.fail("HSET", key, err)
	}
	return nil
}

// PutIfAbsent sets field only when it is not present yet.
func (h *HashOps[T]) PutIfAbsent(ctx context.Context, key, field string, value T) (bool, error) {
	data, err := h.rc.codec.Encode(value)
	if err != nil {
		return false, WrapError("HSETNX", key, err)
	}

	ctx, cancel := h.rc.withTimeout(ctx)
	defer cancel()

	ok, err := h.rc.client.HSetNX(ctx, key, field, data).Result()
	if err != nil {
		return false, h.rc.fail("HSETNX", key, err)
	}
	return ok, nil
}

// Get decodes one field. A missing key or field yields ErrNotFound.
func (h *HashOps[T]) Get(ctx context.Context, key, field string) (T, error) {
	var out T

	ctx, cancel := h.rc.withTimeout(ctx)
	defer cancel()

	data, err := h.rc.client.HGet(ctx, key, field).Bytes()
	if err != nil {
		return out, h.rc.fail("HGET", key, err)
	}
	if err := h.rc.codec.Decode(data, &out); err != nil {
		return out, WrapError("HGET", key, err)
	}
	return out, nil
}

// Entries retrieves all fields and values from a hash stored at a key. An
// absent key returns an empty map.
func (h *HashOps[T]) Entries(ctx context.Context, key string) (map[string]T, error) {
	ctx, cancel := h.rc.withTimeout(ctx)
	defer cancel()

	raw, err := h.rc.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, h.rc.fail("retrieving hash values", key, err)
	}
	out := make(map[string]T, len(raw))
	for field, s := range raw {
		var item T
		if err := h.rc.codec.Decode([]byte(s), &item); err != nil {
			return nil, WrapError("retrieving hash values", key, err)
		}
		out[field] = item
	}
	return out, nil
}

// Fields lists the field names of the hash in sorted order.
func (h *HashOps[T]) Fields(ctx context.Context, key string) ([]string, error) {
	ctx, cancel := h.rc.withTimeout(ctx)
	defer cancel()

	fields, err := h.rc.client.HKeys(ctx, key).Result()
	if err != nil {
		return nil, h.rc.fail("HKEYS", key, err)
	}
	sort.Strings(fields)
	return fields, nil
}

func (h *HashOps[T]) HasField(ctx context.Context, key, field string) (bool, error) {
	ctx, cancel := h.rc.withTimeout(ctx)
	defer cancel()

	ok, err := h.rc.client.HExists(ctx, key, field).Result()
	if err != nil {
		return false, h.rc.fail("HEXISTS", key, err)
	}
	return ok, nil
}

// Delete removes fields and returns how many existed.
func (h *HashOps[T]) Delete(ctx context.Context, key string, fields ...string) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}

	ctx, cancel := h.rc.withTimeout(ctx)
	defer cancel()

	n, err := h.rc.client.HDel(ctx, key, fields...).Result()
	if err != nil {
		return 0, h.rc.fail("HDEL", key, err)
	}
	return n, nil
}

func (h *HashOps[T]) Size(ctx context.Context, key string) (int64, error) {
	ctx, cancel := h.rc.withTimeout(ctx)
	defer cancel()

	n, err := h.rc.client.HLen(ctx, key).Result()
	if err != nil {
		return 0, h.rc.fail("HLEN", key, err)
	}
	return n, nil
}
