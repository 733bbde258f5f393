// Package cache provides named caches stored in Redis, each with its own key
// prefix and time-to-live.
//
// Entries of cache "users" under key "42" live at the Redis key "users::42"
// by default, so they share the key namespace and TTL semantics of the
// redis package.
package cache

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pankajvermacr7/rediskit/redis"
)

// nullValue marks a cached nil when null values are allowed.
var nullValue = []byte{0}

// Loader produces a value on a cache miss.
type Loader func(ctx context.Context) (interface{}, error)

type settings struct {
	ttl        time.Duration
	prefix     func(name string) string
	allowNulls bool
}

type Option func(*settings)

// WithTTL sets the entry lifetime. Zero keeps the client default TTL and
// redis.NotExpire stores entries without expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) { s.ttl = ttl }
}

// WithKeyPrefix replaces the default "name::" prefix.
func WithKeyPrefix(prefix func(name string) string) Option {
	return func(s *settings) {
		if prefix != nil {
			s.prefix = prefix
		}
	}
}

// WithNullValues allows caching nil results from loaders.
func WithNullValues(allow bool) Option {
	return func(s *settings) { s.allowNulls = allow }
}

func defaultPrefix(name string) string { return name + "::" }

// Manager hands out named caches backed by one RedisClient.
type Manager struct {
	client   *redis.RedisClient
	settings settings

	mu     sync.Mutex
	caches map[string]*Cache
}

func NewManager(client *redis.RedisClient, opts ...Option) *Manager {
	s := settings{prefix: defaultPrefix}
	for _, opt := range opts {
		opt(&s)
	}
	return &Manager{
		client:   client,
		settings: s,
		caches:   make(map[string]*Cache),
	}
}

// Cache returns the cache called name, creating it on first use. Options
// override the manager settings for a newly created cache only.
func (m *Manager) Cache(name string, opts ...Option) *Cache {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.caches[name]; ok {
		return c
	}
	s := m.settings
	for _, opt := range opts {
		opt(&s)
	}
	c := &Cache{
		name:     name,
		prefix:   s.prefix(name),
		settings: s,
		client:   m.client,
		bytes:    m.client.Bytes(),
	}
	m.caches[name] = c
	return c
}

// Names lists the caches created so far.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.caches))
	for name := range m.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Cache is a named region of the Redis keyspace.
type Cache struct {
	name     string
	prefix   string
	settings settings
	client   *redis.RedisClient
	bytes    *redis.BytesOps
}

func (c *Cache) Name() string { return c.name }

// Key returns the Redis key used for key.
func (c *Cache) Key(key string) string { return c.prefix + key }

// Get decodes the entry for key into dest. It reports false on a miss. A
// cached null leaves dest untouched and reports true.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.bytes.Get(ctx, c.Key(key))
	if errors.Is(err, redis.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if c.isNull(data) {
		return true, nil
	}
	if err := c.client.Codec().Decode(data, dest); err != nil {
		return false, redis.WrapError("reading cache "+c.name, key, err)
	}
	return true, nil
}

// Put stores value under key.
func (c *Cache) Put(ctx context.Context, key string, value interface{}) error {
	data, err := c.encode(key, value)
	if err != nil {
		return err
	}
	return c.bytes.Set(ctx, c.Key(key), data, c.settings.ttl)
}

// PutIfAbsent stores value only when key has no entry and reports whether it
// did.
func (c *Cache) PutIfAbsent(ctx context.Context, key string, value interface{}) (bool, error) {
	data, err := c.encode(key, value)
	if err != nil {
		return false, err
	}
	return c.bytes.SetIfAbsent(ctx, c.Key(key), data, c.settings.ttl)
}

// Evict removes the entry for key, if any.
func (c *Cache) Evict(ctx context.Context, key string) error {
	return c.client.Delete(ctx, c.Key(key))
}

// Clear removes every entry of the cache and returns how many were removed.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	keys, err := c.client.Keys(ctx, escapeGlob(c.prefix)+"*")
	if err != nil {
		return 0, err
	}
	return c.client.DeleteAll(ctx, keys...)
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '*', '?', '[', ']':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// GetOrLoad returns the cached entry for key, calling loader and caching its
// result on a miss.
func (c *Cache) GetOrLoad(ctx context.Context, key string, dest interface{}, loader Loader) error {
	found, err := c.Get(ctx, key, dest)
	if err != nil || found {
		return err
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	if err := c.Put(ctx, key, value); err != nil {
		return err
	}
	if value == nil {
		return nil
	}

	// Round-trip through the codec so dest gets exactly what later hits see.
	data, err := c.client.Codec().Encode(value)
	if err != nil {
		return redis.WrapError("loading cache "+c.name, key, err)
	}
	if err := c.client.Codec().Decode(data, dest); err != nil {
		return redis.WrapError("loading cache "+c.name, key, err)
	}
	return nil
}

func (c *Cache) encode(key string, value interface{}) ([]byte, error) {
	if value == nil {
		if !c.settings.allowNulls {
			return nil, redis.WrapError("writing cache "+c.name, key, errNullNotAllowed)
		}
		return nullValue, nil
	}
	data, err := c.client.Codec().Encode(value)
	if err != nil {
		return nil, redis.WrapError("writing cache "+c.name, key, err)
	}
	return data, nil
}

func (c *Cache) isNull(data []byte) bool {
	return c.settings.allowNulls && len(data) == 1 && data[0] == 0
}

var errNullNotAllowed = errors.New("cache does not allow null values")
