package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pankajvermacr7/rediskit/logging"
	"github.com/pankajvermacr7/rediskit/redis"
	"github.com/rs/zerolog"
)

// Event is the message published for each key mutation.
type Event struct {
	ID string `json:"id"`
	redis.KeyEvent
}

// KafkaSink publishes redis.KeyEvent values to a topic, keyed by the Redis
// key so events for one key stay ordered within a partition.
type KafkaSink struct {
	publisher Publisher
	topic     string
	metrics   *ProducerMetrics
	logger    zerolog.Logger

	// mu guards closed; publishes hold it shared so Close waits for them.
	mu     sync.RWMutex
	closed bool
}

var _ redis.EventSink = (*KafkaSink)(nil)

func NewKafkaSink(publisher Publisher, topic string, metrics *ProducerMetrics) *KafkaSink {
	if topic == "" {
		topic = DefaultTopic
	}
	if metrics == nil {
		metrics = NewProducerMetrics()
	}
	return &KafkaSink{
		publisher: publisher,
		topic:     topic,
		metrics:   metrics,
		logger:    logging.NewLogger(),
	}
}

// KeyChanged implements redis.EventSink. Publish failures are logged and
// counted; they never fail the Redis operation that produced the event.
// Events arriving after Close are dropped.
func (s *KafkaSink) KeyChanged(_ context.Context, ev redis.KeyEvent) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	msg := Event{ID: uuid.NewString(), KeyEvent: ev}
	headers := map[string]string{
		"event-id": msg.ID,
		"op":       ev.Op,
	}

	if err := s.publisher.SendMessage(s.topic, ev.Key, msg, headers); err != nil {
		s.metrics.PublishErrors.WithLabelValues(s.topic).Inc()
		s.logger.Warn().
			Err(err).
			Str("topic", s.topic).
			Str("op", ev.Op).
			Str("key", ev.Key).
			Msg("Failed to publish key event")
		return
	}
	s.metrics.EventsPublished.WithLabelValues(s.topic, ev.Op).Inc()
}

// Close shuts down the underlying publisher. Later calls are no-ops.
func (s *KafkaSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.publisher.Close()
}

// NewSinkFromConfig builds a KafkaSink from config, or returns nil when
// publishing is disabled.
func NewSinkFromConfig(config *Config, codec redis.Codec, metrics *ProducerMetrics) (*KafkaSink, error) {
	if config == nil || !config.Enabled {
		return nil, nil
	}
	if metrics == nil {
		metrics = NewProducerMetrics()
	}
	logger := logging.NewLogger()
	producer, err := NewProducer(config, codec, ProducerOptions{
		ErrorHandler: func(err error) {
			metrics.PublishErrors.WithLabelValues(config.Topic).Inc()
			logger.Warn().Err(err).Str("topic", config.Topic).Msg("Kafka delivery failed")
		},
	})
	if err != nil {
		return nil, err
	}
	return NewKafkaSink(producer, config.Topic, metrics), nil
}
