package redis

import (
	"context"
)

// SetOps treats a key as an unordered collection of unique encoded members.
// Uniqueness is decided on the encoded bytes.
type SetOps[T any] struct {
	rc *RedisClient
}

func NewSetOps[T any](rc *RedisClient) *SetOps[T] {
	return &SetOps[T]{rc: rc}
}

// Add inserts members and returns how many were new.
func (s *SetOps[T]) Add(ctx context.Context, key string, members ...T) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	args, err := encodeArgs(s.rc.codec, members)
	if err != nil {
		return 0, WrapError("SADD", key, err)
	}

	ctx, cancel := s.rc.withTimeout(ctx)
	defer cancel()

	n, err := s.rc.client.SAdd(ctx, key, args...).Result()
	if err != nil {
		return 0, s.rc.fail("SADD", key, err)
	}
	return n, nil
}

// Remove deletes members and returns how many were present.
func (s *SetOps[T]) Remove(ctx context.Context, key string, members ...T) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	args, err := encodeArgs(s.rc.codec, members)
	if err != nil {
		return 0, WrapError("SREM", key, err)
	}

	ctx, cancel := s.rc.withTimeout(ctx)
	defer cancel()

	n, err := s.rc.client.SRem(ctx, key, args...).Result()
	if err != nil {
		return 0, s.rc.fail("SREM", key, err)
	}
	return n, nil
}

// Members returns every member in no particular order.
func (s *SetOps[T]) Members(ctx context.Context, key string) ([]T, error) {
	ctx, cancel := s.rc.withTimeout(ctx)
	defer cancel()

	raw, err := s.rc.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, s.rc.fail("SMEMBERS", key, err)
	}
	out, err := decodeStrings[T](s.rc.codec, raw)
	if err != nil {
		return nil, WrapError("SMEMBERS", key, err)
	}
	return out, nil
}

func (s *SetOps[T]) IsMember(ctx context.Context, key string, member T) (bool, error) {
	data, err := s.rc.codec.Encode(member)
	if err != nil {
		return false, WrapError("SISMEMBER", key, err)
	}

	ctx, cancel := s.rc.withTimeout(ctx)
	defer cancel()

	ok, err := s.rc.client.SIsMember(ctx, key, data).Result()
	if err != nil {
		return false, s.rc.fail("SISMEMBER", key, err)
	}
	return ok, nil
}

// Pop removes and returns a random member. An empty set yields ErrNotFound.
func (s *SetOps[T]) Pop(ctx context.Context, key string) (T, error) {
	var out T

	ctx, cancel := s.rc.withTimeout(ctx)
	defer cancel()

	data, err := s.rc.client.SPop(ctx, key).Bytes()
	if err != nil {
		return out, s.rc.fail("SPOP", key, err)
	}
	if err := s.rc.codec.Decode(data, &out); err != nil {
		return out, WrapError("SPOP", key, err)
	}
	return out, nil
}

func (s *SetOps[T]) Size(ctx context.Context, key string) (int64, error) {
	ctx, cancel := s.rc.withTimeout(ctx)
	defer cancel()

	n, err := s.rc.client.SCard(ctx, key).Result()
	if err != nil {
		return 0, s.rc.fail("SCARD", key, err)
	}
	return n, nil
}
