package redis

import (
	"context"
	"time"
)

// KeyOperations defines the key-management surface shared by every view.
type KeyOperations interface {
	Exists(ctx context.Context, key string) (bool, error)
	Rename(ctx context.Context, oldKey, newKey string) error
	RenameIfAbsent(ctx context.Context, oldKey, newKey string) (bool, error)
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context, keys ...string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	ExpireAt(ctx context.Context, key string, at time.Time) error
	GetExpire(ctx context.Context, key string) (time.Duration, error)
	Persist(ctx context.Context, key string) error
}

var _ KeyOperations = (*RedisClient)(nil)

// Key event operations.
const (
	OpRename   = "rename"
	OpDelete   = "delete"
	OpExpire   = "expire"
	OpExpireAt = "expire_at"
	OpPersist  = "persist"
	OpStore    = "store"
	OpFlushDB  = "flush_db"
)

// KeyEvent describes a successful key mutation.
type KeyEvent struct {
	Op     string        `json:"op"`
	Key    string        `json:"key"`
	Target string        `json:"target,omitempty"` // new key for renames
	TTL    time.Duration `json:"ttl,omitempty"`
	At     time.Time     `json:"at"`
}

// EventSink is notified after key mutations. Implementations must not block
// for long; the caller's operation has already completed.
type EventSink interface {
	KeyChanged(ctx context.Context, ev KeyEvent)
}

type noopSink struct{}

func (noopSink) KeyChanged(context.Context, KeyEvent) {}
