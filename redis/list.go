package redis

import (
	"context"
)

// ListOps treats a key as an ordered sequence of encoded T values.
type ListOps[T any] struct {
	rc *RedisClient
}

func NewListOps[T any](rc *RedisClient) *ListOps[T] {
	return &ListOps[T]{rc: rc}
}

// LeftPush prepends values and returns the new length.
func (l *ListOps[T]) LeftPush(ctx context.Context, key string, values ...T) (int64, error) {
	return l.push(ctx, "LPUSH", key, values)
}

// RightPush appends values and returns the new length.
func (l *ListOps[T]) RightPush(ctx context.Context, key string, values ...T) (int64, error) {
	return l.push(ctx, "RPUSH", key, values)
}

func (l *ListOps[T]) push(ctx context.Context, command, key string, values []T) (int64, error) {
	if len(values) == 0 {
		return l.Size(ctx, key)
	}
	args, err := encodeArgs(l.rc.codec, values)
	if err != nil {
		return 0, WrapError(command, key, err)
	}

	ctx, cancel := l.rc.withTimeout(ctx)
	defer cancel()

	var n int64
	if command == "LPUSH" {
		n, err = l.rc.client.LPush(ctx, key, args...).Result()
	} else {
		n, err = l.rc.client.RPush(ctx, key, args...).Result()
	}
	if err != nil {
		return 0, l.rc.fail(command, key, err)
	}
	return n, nil
}

// LeftPop removes and returns the first element. An empty or absent list
// yields ErrNotFound.
func (l *ListOps[T]) LeftPop(ctx context.Context, key string) (T, error) {
	ctx, cancel := l.rc.withTimeout(ctx)
	defer cancel()
	return l.decode("LPOP", key, l.rc.client.LPop(ctx, key))
}

func (l *ListOps[T]) RightPop(ctx context.Context, key string) (T, error) {
	ctx, cancel := l.rc.withTimeout(ctx)
	defer cancel()
	return l.decode("RPOP", key, l.rc.client.RPop(ctx, key))
}

// Index returns the element at index; negative indexes count from the tail.
func (l *ListOps[T]) Index(ctx context.Context, key string, index int64) (T, error) {
	ctx, cancel := l.rc.withTimeout(ctx)
	defer cancel()
	return l.decode("LINDEX", key, l.rc.client.LIndex(ctx, key, index))
}

func (l *ListOps[T]) decode(command, key string, cmd interface{ Bytes() ([]byte, error) }) (T, error) {
	var out T
	data, err := cmd.Bytes()
	if err != nil {
		return out, l.rc.fail(command, key, err)
	}
	if err := l.rc.codec.Decode(data, &out); err != nil {
		return out, WrapError(command, key, err)
	}
	return out, nil
}

// Range returns elements between start and stop inclusive, Redis style.
func (l *ListOps[T]) Range(ctx context.Context, key string, start, stop int64) ([]T, error) {
	ctx, cancel := l.rc.withTimeout(ctx)
	defer cancel()

	raw, err := l.rc.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, l.rc.fail("LRANGE", key, err)
	}
	out, err := decodeStrings[T](l.rc.codec, raw)
	if err != nil {
		return nil, WrapError("LRANGE", key, err)
	}
	return out, nil
}

// SetAt overwrites the element at index.
func (l *ListOps[T]) SetAt(ctx context.Context, key string, index int64, value T) error {
	data, err := l.rc.codec.Encode(value)
	if err != nil {
		return WrapError("LSET", key, err)
	}

	ctx, cancel := l.rc.withTimeout(ctx)
	defer cancel()

	if err := l.rc.client.LSet(ctx, key, index, data).Err(); err != nil {
		return l.rc.fail("LSET", key, err)
	}
	return nil
}

// Remove deletes up to count occurrences of value (all when count is 0) and
// returns how many were removed.
func (l *ListOps[T]) Remove(ctx context.Context, key string, count int64, value T) (int64, error) {
	data, err := l.rc.codec.Encode(value)
	if err != nil {
		return 0, WrapError("LREM", key, err)
	}

	ctx, cancel := l.rc.withTimeout(ctx)
	defer cancel()

	n, err := l.rc.client.LRem(ctx, key, count, data).Result()
	if err != nil {
		return 0, l.rc.fail("LREM", key, err)
	}
	return n, nil
}

// Trim keeps only the elements between start and stop inclusive.
func (l *ListOps[T]) Trim(ctx context.Context, key string, start, stop int64) error {
	ctx, cancel := l.rc.withTimeout(ctx)
	defer cancel()

	if err := l.rc.client.LTrim(ctx, key, start, stop).Err(); err != nil {
		return l.rc.fail("LTRIM", key, err)
	}
	return nil
}

func (l *ListOps[T]) Size(ctx context.Context, key string) (int64, error) {
	ctx, cancel := l.rc.withTimeout(ctx)
	defer cancel()

	n, err := l.rc.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, l.rc.fail("LLEN", key, err)
	}
	return n, nil
}

func encodeArgs[T any](codec Codec, values []T) ([]interface{}, error) {
	args := make([]interface{}, len(values))
	for i, value := range values {
		data, err := codec.Encode(value)
		if err != nil {
			return nil, err
		}
		args[i] = data
	}
	return args, nil
}

func decodeStrings[T any](codec Codec, raw []string) ([]T, error) {
	out := make([]T, len(raw))
	for i, s := range raw {
		if err := codec.Decode([]byte(s), &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
