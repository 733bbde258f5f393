package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Load reads the value stored at key whatever its shape.
func Load[T any](ctx context.Context, rc *RedisClient, key string) (Value[T], error) {
	p, err := rc.loadPayload(ctx, key)
	if err != nil {
		return Value[T]{}, err
	}
	v, err := DecodeValue[T](rc.codec, p)
	if err != nil {
		return Value[T]{}, WrapError("loading value", key, err)
	}
	return v, nil
}

// Store replaces whatever key held with v in a single MULTI/EXEC. The ttl
// follows ValueOps.Set: zero applies the default TTL, negative means none.
// An empty collection leaves the key absent.
func Store[T any](ctx context.Context, rc *RedisClient, key string, v Value[T], ttl time.Duration) error {
	p, err := EncodeValue(rc.codec, v)
	if err != nil {
		return WrapError("storing value", key, err)
	}
	return rc.storePayload(ctx, key, p, ttl)
}

func (rc *RedisClient) loadPayload(ctx context.Context, key string) (Payload, error) {
	shape, err := rc.Type(ctx, key)
	if err != nil {
		return Payload{}, err
	}

	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()

	p := Payload{Shape: shape}
	switch shape {
	case ShapeString:
		p.Scalar, err = rc.client.Get(ctx, key).Bytes()
	case ShapeHash:
		var raw map[string]string
		if raw, err = rc.client.HGetAll(ctx, key).Result(); err == nil {
			p.Hash = make(map[string][]byte, len(raw))
			for field, s := range raw {
				p.Hash[field] = []byte(s)
			}
		}
	case ShapeList:
		var raw []string
		if raw, err = rc.client.LRange(ctx, key, 0, -1).Result(); err == nil {
			p.List = toBytes(raw)
		}
	case ShapeSet:
		var raw []string
		if raw, err = rc.client.SMembers(ctx, key).Result(); err == nil {
			p.Set = toBytes(raw)
		}
	case ShapeZSet:
		var zs []redis.Z
		if zs, err = rc.client.ZRangeWithScores(ctx, key, 0, -1).Result(); err == nil {
			p.ZSet = make([]ScoredBytes, len(zs))
			for i, m := range zs {
				p.ZSet[i] = ScoredBytes{Member: []byte(fmt.Sprint(m.Member)), Score: m.Score}
			}
		}
	}
	if err != nil {
		return Payload{}, rc.fail("loading "+shape.String(), key, err)
	}
	// The key may have expired or been deleted between TYPE and the read.
	if p.empty() {
		return Payload{}, WrapError("loading "+shape.String(), key, ErrNotFound)
	}
	return p, nil
}

func (rc *RedisClient) storePayload(ctx context.Context, key string, p Payload, ttl time.Duration) error {
	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()

	_, err := rc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if p.empty() {
			return nil
		}

		switch p.Shape {
		case ShapeString:
			pipe.Set(ctx, key, p.Scalar, 0)
		case ShapeHash:
			fields := make(map[string]interface{}, len(p.Hash))
			for field, data := range p.Hash {
				fields[field] = data
			}
			pipe.HSet(ctx, key, fields)
		case ShapeList:
			pipe.RPush(ctx, key, bytesArgs(p.List)...)
		case ShapeSet:
			pipe.SAdd(ctx, key, bytesArgs(p.Set)...)
		case ShapeZSet:
			zs := make([]*redis.Z, len(p.ZSet))
			for i, m := range p.ZSet {
				zs[i] = &redis.Z{Score: m.Score, Member: string(m.Member)}
			}
			pipe.ZAdd(ctx, key, zs...)
		}

		if exp := rc.expiration(ttl); exp > 0 {
			pipe.PExpire(ctx, key, exp)
		}
		return nil
	})
	if err != nil {
		return rc.fail("storing "+p.Shape.String(), key, err)
	}

	rc.emit(ctx, KeyEvent{Op: OpStore, Key: key, TTL: rc.expiration(ttl)})
	return nil
}

func (p Payload) empty() bool {
	switch p.Shape {
	case ShapeString:
		return false
	case ShapeHash:
		return len(p.Hash) == 0
	case ShapeList:
		return len(p.List) == 0
	case ShapeSet:
		return len(p.Set) == 0
	case ShapeZSet:
		return len(p.ZSet) == 0
	}
	return true
}

func toBytes(raw []string) [][]byte {
	out := make([][]byte, len(raw))
	for i, s := range raw {
		out[i] = []byte(s)
	}
	return out
}

func bytesArgs(items [][]byte) []interface{} {
	args := make([]interface{}, len(items))
	for i, item := range items {
		args[i] = item
	}
	return args
}
