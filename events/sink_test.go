package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/pankajvermacr7/rediskit/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	topic   string
	key     string
	value   interface{}
	headers map[string]string
}

// fakePublisher records messages instead of talking to Kafka.
type fakePublisher struct {
	mu     sync.Mutex
	sent   []sentMessage
	err    error
	closed bool
}

func (p *fakePublisher) SendMessage(topic string, key string, value interface{}, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, sentMessage{topic: topic, key: key, value: value, headers: headers})
	return nil
}

func (p *fakePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		panic("publisher closed twice")
	}
	p.closed = true
	return nil
}

func TestKafkaSink_KeyChanged(t *testing.T) {
	pub := &fakePublisher{}
	metrics := NewProducerMetrics()
	sink := NewKafkaSink(pub, "", metrics)

	ev := redis.KeyEvent{Op: redis.OpRename, Key: "a", Target: "b", At: time.Now()}
	sink.KeyChanged(context.Background(), ev)

	require.Len(t, pub.sent, 1)
	msg := pub.sent[0]
	assert.Equal(t, DefaultTopic, msg.topic)
	assert.Equal(t, "a", msg.key)
	assert.Equal(t, redis.OpRename, msg.headers["op"])

	event, ok := msg.value.(Event)
	require.True(t, ok)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, event.ID, msg.headers["event-id"])
	assert.Equal(t, "b", event.Target)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(DefaultTopic, redis.OpRename)))
}

func TestKafkaSink_PublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker unavailable")}
	metrics := NewProducerMetrics()
	sink := NewKafkaSink(pub, "events", metrics)

	assert.NotPanics(t, func() {
		sink.KeyChanged(context.Background(), redis.KeyEvent{Op: redis.OpDelete, Key: "k"})
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PublishErrors.WithLabelValues("events")))
}

func TestKafkaSink_NilSafe(t *testing.T) {
	var sink *KafkaSink
	assert.NotPanics(t, func() {
		sink.KeyChanged(context.Background(), redis.KeyEvent{Op: redis.OpDelete, Key: "k"})
	})
}

func TestKafkaSink_Close(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewKafkaSink(pub, "", nil)
	require.NoError(t, sink.Close())
	assert.True(t, pub.closed)

	assert.NotPanics(t, func() {
		assert.NoError(t, sink.Close())
	})
}

func TestKafkaSink_KeyChangedAfterClose(t *testing.T) {
	pub := &fakePublisher{}
	metrics := NewProducerMetrics()
	sink := NewKafkaSink(pub, "", metrics)
	require.NoError(t, sink.Close())

	assert.NotPanics(t, func() {
		sink.KeyChanged(context.Background(), redis.KeyEvent{Op: redis.OpDelete, Key: "k"})
	})
	assert.Empty(t, pub.sent)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PublishErrors.WithLabelValues(DefaultTopic)))
}

func TestEventJSON(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := redis.JSONCodec{}.Encode(Event{
		ID:       "id-1",
		KeyEvent: redis.KeyEvent{Op: redis.OpExpire, Key: "session:1", TTL: 30 * time.Second, At: at},
	})
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "id-1", got["id"])
	assert.Equal(t, "expire", got["op"])
	assert.Equal(t, "session:1", got["key"])
	assert.Equal(t, float64(30*time.Second), got["ttl"])
	assert.NotContains(t, got, "target")
}

func TestNewSinkFromConfig_Disabled(t *testing.T) {
	sink, err := NewSinkFromConfig(DefaultConfig(), nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, sink)

	sink, err = NewSinkFromConfig(nil, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, sink)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no brokers", mutate: func(c *Config) { c.Brokers = nil }, wantErr: true},
		{name: "no topic", mutate: func(c *Config) { c.Topic = "" }, wantErr: true},
		{
			name: "sasl without password",
			mutate: func(c *Config) {
				c.SecuritySettings.EnableSASL = true
				c.SecuritySettings.SASLUsername = "user"
			},
			wantErr: true,
		},
		{
			name: "scram mechanism",
			mutate: func(c *Config) {
				c.SecuritySettings = SecurityConfig{EnableSASL: true, SASLMechanism: "SCRAM-SHA-512", SASLUsername: "u", SASLPassword: "p"}
			},
			wantErr: true,
		},
		{name: "negative retries", mutate: func(c *Config) { c.ProducerSettings.RetryMax = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			c.Brokers = []string{"localhost:9092"}
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaramaConfig(t *testing.T) {
	c := DefaultConfig()
	c.Brokers = []string{"localhost:9092"}
	c.SecuritySettings = SecurityConfig{
		EnableSASL:    true,
		SASLMechanism: "PLAIN",
		SASLUsername:  "user",
		SASLPassword:  "secret",
	}

	sc, err := c.SaramaConfig()
	require.NoError(t, err)
	assert.Equal(t, sarama.WaitForLocal, sc.Producer.RequiredAcks)
	assert.Equal(t, sarama.CompressionSnappy, sc.Producer.Compression)
	assert.True(t, sc.Producer.Return.Successes)
	assert.True(t, sc.Net.SASL.Enable)
	assert.Equal(t, "user", sc.Net.SASL.User)
	assert.Equal(t, DefaultClientID, sc.ClientID)
	assert.NoError(t, sc.Validate())
}

func TestProducerMetricsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, NewProducerMetrics().Register(reg))
}
