package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pankajvermacr7/rediskit/events"
	"github.com/pankajvermacr7/rediskit/redis"
	"github.com/pankajvermacr7/rediskit/sentry"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. REDISKIT_REDIS_HOST.
const EnvPrefix = "REDISKIT"

type Config struct {
	Redis   RedisConfig         `mapstructure:"redis"`
	Logging LoggingConfig       `mapstructure:"logging"`
	Sentry  sentry.SentryConfig `mapstructure:"sentry"`
	Events  EventsConfig        `mapstructure:"events"`
}

type RedisConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	Password          string        `mapstructure:"password"`
	DB                int           `mapstructure:"db"`
	PoolSize          int           `mapstructure:"pool_size"`
	MinIdleConns      int           `mapstructure:"min_idle_conns"`
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	OperationTimeout  time.Duration `mapstructure:"operation_timeout"`
	DefaultTTLSeconds int64         `mapstructure:"default_ttl_seconds"`
	NoTTLSentinel     int64         `mapstructure:"no_ttl_sentinel"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type EventsConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Load resets the global viper instance, reads path (any format viper
// understands) plus environment overrides into it, and returns the decoded
// configuration. An empty path uses defaults and the environment only.
func Load(path string) (*Config, error) {
	viper.Reset()
	v := viper.GetViper()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := redis.DefaultConfig()
	v.SetDefault("redis.host", d.Host)
	v.SetDefault("redis.port", d.Port)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", d.PoolSize)
	v.SetDefault("redis.min_idle_conns", d.MinIdleConns)
	v.SetDefault("redis.connection_timeout", d.ConnectionTimeout)
	v.SetDefault("redis.read_timeout", d.ReadTimeout)
	v.SetDefault("redis.write_timeout", d.WriteTimeout)
	v.SetDefault("redis.operation_timeout", time.Duration(0))
	v.SetDefault("redis.default_ttl_seconds", int64(redis.DefaultExpire/time.Second))
	v.SetDefault("redis.no_ttl_sentinel", int64(redis.NotExpire))

	v.SetDefault("logging.level", "info")

	// Every key needs a default so AutomaticEnv can find its override.
	s := sentry.DefaultConfig()
	v.SetDefault("sentry.dsn", s.DSN)
	v.SetDefault("sentry.environment", s.Environment)
	v.SetDefault("sentry.release", s.Release)
	v.SetDefault("sentry.debug", s.Debug)
	v.SetDefault("sentry.is_enabled", s.IsEnabled)
	v.SetDefault("sentry.traces_sample_rate", s.TracesSampleRate)
	v.SetDefault("sentry.profiles_sample_rate", s.ProfilesSampleRate)
	v.SetDefault("sentry.enable_tracing", s.EnableTracing)

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topic", events.DefaultTopic)
}

func (c *Config) Validate() error {
	if c.Redis.NoTTLSentinel != int64(redis.NotExpire) {
		return fmt.Errorf("redis.no_ttl_sentinel must be %d", int64(redis.NotExpire))
	}
	if c.Redis.DefaultTTLSeconds <= 0 {
		return errors.New("redis.default_ttl_seconds must be positive")
	}
	if err := c.RedisClientConfig().Validate(); err != nil {
		return err
	}
	if c.Events.Enabled {
		if err := c.EventsProducerConfig().Validate(); err != nil {
			return fmt.Errorf("invalid events config: %w", err)
		}
	}
	return nil
}

// RedisClientConfig converts the file settings into a redis.Config.
func (c *Config) RedisClientConfig() redis.Config {
	r := c.Redis
	return redis.Config{
		Host:              r.Host,
		Port:              r.Port,
		Password:          r.Password,
		DB:                r.DB,
		PoolSize:          r.PoolSize,
		MinIdleConns:      r.MinIdleConns,
		ConnectionTimeout: r.ConnectionTimeout,
		ReadTimeout:       r.ReadTimeout,
		WriteTimeout:      r.WriteTimeout,
		OperationTimeout:  r.OperationTimeout,
		DefaultTTL:        time.Duration(r.DefaultTTLSeconds) * time.Second,
	}
}

// EventsProducerConfig starts from events.DefaultConfig and applies the file
// settings.
func (c *Config) EventsProducerConfig() *events.Config {
	ec := events.DefaultConfig()
	ec.Enabled = c.Events.Enabled
	ec.Brokers = c.Events.Brokers
	if c.Events.Topic != "" {
		ec.Topic = c.Events.Topic
	}
	return ec
}
