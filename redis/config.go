package redis

import (
	"errors"
	"net"
	"strconv"
	"time"
)

const (
	// DefaultExpire is the default key lifetime, one day.
	DefaultExpire = 24 * time.Hour

	// NotExpire marks a key without a TTL. It is distinct from a zero TTL,
	// which expires the key immediately.
	NotExpire time.Duration = -1
)

// Config holds the Redis configuration details.
type Config struct {
	Host              string        // Redis server host
	Port              int           // Redis server port
	Password          string        // Password for Redis authentication
	DB                int           // Database index
	PoolSize          int           // Maximum number of connections in the pool
	MinIdleConns      int           // Minimum number of idle connections
	ConnectionTimeout time.Duration // Dial and startup ping timeout
	ReadTimeout       time.Duration // Socket read timeout
	WriteTimeout      time.Duration // Socket write timeout
	OperationTimeout  time.Duration // Per-call timeout applied when the context has no deadline
	DefaultTTL        time.Duration // Default expiration time for keys
}

// DefaultConfig returns a configuration pointing at a local Redis.
func DefaultConfig() Config {
	return Config{
		Host:              "localhost",
		Port:              6379,
		PoolSize:          10,
		MinIdleConns:      2,
		ConnectionTimeout: 5 * time.Second,
		ReadTimeout:       3 * time.Second,
		WriteTimeout:      3 * time.Second,
		DefaultTTL:        DefaultExpire,
	}
}

// Address returns the host:port pair go-redis dials.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("redis host must be configured")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("redis port must be between 1 and 65535")
	}
	if c.PoolSize < 0 || c.MinIdleConns < 0 {
		return errors.New("redis pool sizes must not be negative")
	}
	if c.ConnectionTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.OperationTimeout < 0 {
		return errors.New("redis timeouts must not be negative")
	}
	if c.DefaultTTL < 0 {
		return errors.New("redis default TTL must not be negative")
	}
	return nil
}
