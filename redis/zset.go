package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// ZSetOps treats a key as an ordered set: members sorted by score, ties
// broken by the encoded member bytes.
type ZSetOps[T any] struct {
	rc *RedisClient
}

func NewZSetOps[T any](rc *RedisClient) *ZSetOps[T] {
	return &ZSetOps[T]{rc: rc}
}

// Add adds one or more members to a sorted set or updates their scores. It
// returns the number of new members.
func (z *ZSetOps[T]) Add(ctx context.Context, key string, members ...Scored[T]) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	zs := make([]*redis.Z, len(members))
	for i, m := range members {
		data, err := z.rc.codec.Encode(m.Member)
		if err != nil {
			return 0, WrapError("ZADD", key, err)
		}
		zs[i] = &redis.Z{Score: m.Score, Member: string(data)}
	}

	ctx, cancel := z.rc.withTimeout(ctx)
	defer cancel()

	n, err := z.rc.client.ZAdd(ctx, key, zs...).Result()
	if err != nil {
		return 0, z.rc.fail("ZADD", key, err)
	}
	return n, nil
}

// Remove deletes members and returns how many were present.
func (z *ZSetOps[T]) Remove(ctx context.Context, key string, members ...T) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	args, err := encodeArgs(z.rc.codec, members)
	if err != nil {
		return 0, WrapError("ZREM", key, err)
	}

	ctx, cancel := z.rc.withTimeout(ctx)
	defer cancel()

	n, err := z.rc.client.ZRem(ctx, key, args...).Result()
	if err != nil {
		return 0, z.rc.fail("ZREM", key, err)
	}
	return n, nil
}

// Score returns the score of member, or ErrNotFound.
func (z *ZSetOps[T]) Score(ctx context.Context, key string, member T) (float64, error) {
	data, err := z.rc.codec.Encode(member)
	if err != nil {
		return 0, WrapError("ZSCORE", key, err)
	}

	ctx, cancel := z.rc.withTimeout(ctx)
	defer cancel()

	score, err := z.rc.client.ZScore(ctx, key, string(data)).Result()
	if err != nil {
		return 0, z.rc.fail("ZSCORE", key, err)
	}
	return score, nil
}

// IncrementScore adds delta to the score of member, creating it if needed,
// and returns the new score.
func (z *ZSetOps[T]) IncrementScore(ctx context.Context, key string, member T, delta float64) (float64, error) {
	data, err := z.rc.codec.Encode(member)
	if err != nil {
		return 0, WrapError("ZINCRBY", key, err)
	}

	ctx, cancel := z.rc.withTimeout(ctx)
	defer cancel()

	score, err := z.rc.client.ZIncrBy(ctx, key, delta, string(data)).Result()
	if err != nil {
		return 0, z.rc.fail("ZINCRBY", key, err)
	}
	return score, nil
}

// Range returns members between ranks start and stop in ascending order.
func (z *ZSetOps[T]) Range(ctx context.Context, key string, start, stop int64) ([]Scored[T], error) {
	ctx, cancel := z.rc.withTimeout(ctx)
	defer cancel()

	zs, err := z.rc.client.ZRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, z.rc.fail("ZRANGE", key, err)
	}
	return z.decode("ZRANGE", key, zs)
}

// RevRange retrieves elements from a sorted set in descending order.
func (z *ZSetOps[T]) RevRange(ctx context.Context, key string, start, stop int64) ([]Scored[T], error) {
	ctx, cancel := z.rc.withTimeout(ctx)
	defer cancel()

	zs, err := z.rc.client.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, z.rc.fail("ZREVRANGE", key, err)
	}
	return z.decode("ZREVRANGE", key, zs)
}

// RangeByScore returns members with min <= score <= max in ascending order.
func (z *ZSetOps[T]) RangeByScore(ctx context.Context, key string, min, max float64) ([]Scored[T], error) {
	ctx, cancel := z.rc.withTimeout(ctx)
	defer cancel()

	zs, err := z.rc.client.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min: formatScore(min),
		Max: formatScore(max),
	}).Result()
	if err != nil {
		return nil, z.rc.fail("ZRANGEBYSCORE", key, err)
	}
	return z.decode("ZRANGEBYSCORE", key, zs)
}

func (z *ZSetOps[T]) Size(ctx context.Context, key string) (int64, error) {
	ctx, cancel := z.rc.withTimeout(ctx)
	defer cancel()

	n, err := z.rc.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, z.rc.fail("ZCARD", key, err)
	}
	return n, nil
}

func (z *ZSetOps[T]) decode(command, key string, zs []redis.Z) ([]Scored[T], error) {
	out := make([]Scored[T], len(zs))
	for i, m := range zs {
		s, ok := m.Member.(string)
		if !ok {
			return nil, WrapError(command, key, fmt.Errorf("%w: unexpected member type %T", ErrSerialization, m.Member))
		}
		if err := z.rc.codec.Decode([]byte(s), &out[i].Member); err != nil {
			return nil, WrapError(command, key, err)
		}
		out[i].Score = m.Score
	}
	return out, nil
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
