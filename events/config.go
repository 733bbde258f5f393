package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

const (
	DefaultTopic    = "redis-key-events"
	DefaultClientID = "rediskit"
)

// Config controls publishing of key lifecycle events to Kafka.
type Config struct {
	Enabled          bool
	Brokers          []string
	Topic            string
	ClientID         string
	ProducerSettings ProducerConfig
	NetworkSettings  NetworkConfig
	SecuritySettings SecurityConfig
}

// ProducerConfig tunes delivery. Events are keyed by Redis key and always
// hash-partitioned so one key's events stay ordered.
type ProducerConfig struct {
	Async            bool
	RequiredAcks     sarama.RequiredAcks
	RetryMax         int
	RetryBackoff     time.Duration
	FlushFrequency   time.Duration
	FlushMaxMessages int
	CompressionType  sarama.CompressionCodec
}

type NetworkConfig struct {
	MaxOpenRequests int
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
}

type SecurityConfig struct {
	EnableTLS     bool
	EnableSASL    bool
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
}

func DefaultConfig() *Config {
	return &Config{
		Topic:    DefaultTopic,
		ClientID: DefaultClientID,
		ProducerSettings: ProducerConfig{
			Async:            true,
			RequiredAcks:     sarama.WaitForLocal,
			RetryMax:         3,
			RetryBackoff:     100 * time.Millisecond,
			FlushFrequency:   500 * time.Millisecond,
			FlushMaxMessages: 1000,
			CompressionType:  sarama.CompressionSnappy,
		},
		NetworkSettings: NetworkConfig{
			MaxOpenRequests: 5,
			DialTimeout:     10 * time.Second,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
		},
	}
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("at least one broker must be configured")
	}
	if c.Topic == "" {
		return errors.New("an event topic must be configured")
	}
	if c.ProducerSettings.RetryMax < 0 {
		return errors.New("producer retry count must not be negative")
	}
	if s := c.SecuritySettings; s.EnableSASL {
		if s.SASLUsername == "" || s.SASLPassword == "" {
			return errors.New("SASL requires both username and password")
		}
		// SCRAM needs a client generator the producer does not provide.
		if s.SASLMechanism != "" && s.SASLMechanism != "PLAIN" {
			return fmt.Errorf("unsupported SASL mechanism %q", s.SASLMechanism)
		}
	}
	return nil
}

// SaramaConfig validates c and builds the producer configuration.
func (c *Config) SaramaConfig() (*sarama.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	config := sarama.NewConfig()
	config.ClientID = c.ClientID
	if config.ClientID == "" {
		config.ClientID = DefaultClientID
	}

	c.ProducerSettings.apply(config)
	c.NetworkSettings.apply(config)
	c.SecuritySettings.apply(config)

	return config, nil
}

func (p ProducerConfig) apply(config *sarama.Config) {
	config.Producer.RequiredAcks = p.RequiredAcks
	config.Producer.Retry.Max = p.RetryMax
	config.Producer.Retry.Backoff = p.RetryBackoff
	config.Producer.Flush.Frequency = p.FlushFrequency
	config.Producer.Flush.MaxMessages = p.FlushMaxMessages
	config.Producer.Compression = p.CompressionType
	config.Producer.Partitioner = sarama.NewHashPartitioner

	// The sync producer needs successes; the async one drains both.
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
}

func (n NetworkConfig) apply(config *sarama.Config) {
	if n.MaxOpenRequests > 0 {
		config.Net.MaxOpenRequests = n.MaxOpenRequests
	}
	if n.DialTimeout > 0 {
		config.Net.DialTimeout = n.DialTimeout
	}
	if n.ReadTimeout > 0 {
		config.Net.ReadTimeout = n.ReadTimeout
	}
	if n.WriteTimeout > 0 {
		config.Net.WriteTimeout = n.WriteTimeout
	}
}

func (s SecurityConfig) apply(config *sarama.Config) {
	config.Net.TLS.Enable = s.EnableTLS
	if !s.EnableSASL {
		return
	}
	config.Net.SASL.Enable = true
	config.Net.SASL.User = s.SASLUsername
	config.Net.SASL.Password = s.SASLPassword
	if s.SASLMechanism != "" {
		config.Net.SASL.Mechanism = sarama.SASLMechanism(s.SASLMechanism)
	}
}
