package sentry

// SentryConfig is read from the "sentry" section of the kit configuration.
type SentryConfig struct {
	DSN                string  `mapstructure:"dsn"`
	Environment        string  `mapstructure:"environment"`
	Release            string  `mapstructure:"release"`
	Debug              bool    `mapstructure:"debug"`
	IsEnabled          bool    `mapstructure:"is_enabled"`
	TracesSampleRate   float64 `mapstructure:"traces_sample_rate"`
	ProfilesSampleRate float64 `mapstructure:"profiles_sample_rate"`
	EnableTracing      bool    `mapstructure:"enable_tracing"`
}

// DefaultConfig leaves reporting disabled until a DSN is configured.
func DefaultConfig() SentryConfig {
	return SentryConfig{
		Environment:      "dev",
		TracesSampleRate: 0.1,
	}
}
