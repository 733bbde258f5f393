package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Exists checks if a key exists in Redis.
func (rc *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()

	count, err := rc.client.Exists(ctx, key).Result()
	if err != nil {
		return false, rc.fail("checking key existence", key, err)
	}
	return count > 0, nil
}

// Rename renames oldKey to newKey, overwriting any value newKey held.
func (rc *RedisClient) Rename(ctx context.Context, oldKey, newKey string) error {
	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()

	if err := rc.client.Rename(ctx, oldKey, newKey).Err(); err != nil {
		return rc.fail("renaming key", oldKey, err)
	}
	rc.emit(ctx, KeyEvent{Op: OpRename, Key: oldKey, Target: newKey})
	return nil
}

// RenameIfAbsent renames oldKey only when newKey does not exist. It reports
// false, leaving both keys untouched, when newKey is already present.
func (rc *RedisClient) RenameIfAbsent(ctx context.Context, oldKey, newKey string) (bool, error) {
	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()

	renamed, err := rc.client.RenameNX(ctx, oldKey, newKey).Result()
	if err != nil {
		return false, rc.fail("renaming key if absent", oldKey, err)
	}
	if renamed {
		rc.emit(ctx, KeyEvent{Op: OpRename, Key: oldKey, Target: newKey})
	}
	return renamed, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (rc *RedisClient) Delete(ctx context.Context, key string) error {
	_, err := rc.DeleteAll(ctx, key)
	return err
}

// DeleteAll removes every present key of the set in one pipelined round-trip
// and returns how many were removed. Duplicates are sent once and absent keys
// produce no event.
func (rc *RedisClient) DeleteAll(ctx context.Context, keys ...string) (int64, error) {
	keys = uniqueKeys(keys)
	if len(keys) == 0 {
		return 0, nil
	}

	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()

	cmds := make([]*redis.IntCmd, len(keys))
	_, err := rc.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = pipe.Del(ctx, key)
		}
		return nil
	})
	if err != nil {
		return 0, rc.fail("deleting keys", keyLabel(keys), err)
	}

	var deleted int64
	for i, cmd := range cmds {
		if cmd.Val() == 0 {
			continue
		}
		deleted += cmd.Val()
		rc.emit(ctx, KeyEvent{Op: OpDelete, Key: keys[i]})
	}
	return deleted, nil
}

// Expire sets a time-to-live on key. NotExpire clears the TTL instead, and a
// zero or negative TTL expires the key immediately.
func (rc *RedisClient) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if ttl == NotExpire {
		return rc.Persist(ctx, key)
	}

	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()

	ok, err := rc.client.PExpire(ctx, key, ttl).Result()
	if err != nil {
		return rc.fail("setting expiration", key, err)
	}
	if !ok {
		return WrapError("setting expiration", key, ErrNotFound)
	}
	rc.emit(ctx, KeyEvent{Op: OpExpire, Key: key, TTL: ttl})
	return nil
}

// ExpireAt makes key expire at the given instant. An instant in the past
// removes the key right away.
func (rc *RedisClient) ExpireAt(ctx context.Context, key string, at time.Time) error {
	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()

	ok, err := rc.client.PExpireAt(ctx, key, at).Result()
	if err != nil {
		return rc.fail("setting expiration time", key, err)
	}
	if !ok {
		return WrapError("setting expiration time", key, ErrNotFound)
	}
	rc.emit(ctx, KeyEvent{Op: OpExpireAt, Key: key, TTL: time.Until(at)})
	return nil
}

// GetExpire returns the remaining time-to-live of key with millisecond
// precision, or NotExpire when the key has no TTL. An absent key yields
// ErrNotFound.
func (rc *RedisClient) GetExpire(ctx context.Context, key string) (time.Duration, error) {
	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()

	ttl, err := rc.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, rc.fail("retrieving TTL", key, err)
	}

	// PTTL replies -2 for a missing key and -1 for a key without expiry;
	// go-redis passes both through unscaled.
	switch ttl {
	case -2:
		return 0, WrapError("retrieving TTL", key, ErrNotFound)
	case -1:
		return NotExpire, nil
	}
	return ttl, nil
}

// TTL is an alias of GetExpire.
func (rc *RedisClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	return rc.GetExpire(ctx, key)
}

// Persist removes the TTL of key so it lives until deleted.
func (rc *RedisClient) Persist(ctx context.Context, key string) error {
	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()

	cleared, err := rc.client.Persist(ctx, key).Result()
	if err != nil {
		return rc.fail("persisting key", key, err)
	}
	if !cleared {
		// PERSIST answers 0 both for a missing key and for a key that already
		// had no TTL.
		count, err := rc.client.Exists(ctx, key).Result()
		if err != nil {
			return rc.fail("persisting key", key, err)
		}
		if count == 0 {
			return WrapError("persisting key", key, ErrNotFound)
		}
		return nil
	}
	rc.emit(ctx, KeyEvent{Op: OpPersist, Key: key, TTL: NotExpire})
	return nil
}

// Type reports the shape stored at key.
func (rc *RedisClient) Type(ctx context.Context, key string) (Shape, error) {
	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()

	name, err := rc.client.Type(ctx, key).Result()
	if err != nil {
		return ShapeUnknown, rc.fail("retrieving type", key, err)
	}
	shape, err := ParseShape(name)
	if err != nil {
		return ShapeUnknown, WrapError("retrieving type", key, err)
	}
	return shape, nil
}

// Keys retrieves all keys matching a specific pattern. It walks the keyspace
// with SCAN rather than blocking the server with KEYS.
func (rc *RedisClient) Keys(ctx context.Context, pattern string) ([]string, error) {
	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()

	var keys []string
	iter := rc.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, rc.fail("retrieving keys", pattern, err)
	}
	return uniqueKeys(keys), nil
}

// FlushDB deletes all keys in the currently selected Redis database.
func (rc *RedisClient) FlushDB(ctx context.Context) error {
	ctx, cancel := rc.withTimeout(ctx)
	defer cancel()

	if err := rc.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("failed to flush database: %w", rc.fail("FLUSHDB", "", err))
	}
	rc.emit(ctx, KeyEvent{Op: OpFlushDB})
	return nil
}

func uniqueKeys(keys []string) []string {
	if len(keys) < 2 {
		return keys
	}
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func keyLabel(keys []string) string {
	if len(keys) == 1 {
		return keys[0]
	}
	return fmt.Sprintf("%s (+%d more)", keys[0], len(keys)-1)
}
