package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/pankajvermacr7/rediskit/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

func setupKafka(t *testing.T) []string {
	t.Helper()
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	if err != nil {
		t.Fatalf("Failed to start Kafka container: %v", err)
	}
	t.Cleanup(func() {
		kafkaContainer.Terminate(context.Background())
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	if err != nil {
		t.Fatalf("Failed to get brokers: %v", err)
	}
	return brokers
}

func TestKafkaSinkIntegration(t *testing.T) {
	brokers := setupKafka(t)

	config := DefaultConfig()
	config.Enabled = true
	config.Brokers = brokers
	config.Topic = "test-key-events"
	config.ProducerSettings.Async = false

	sink, err := NewSinkFromConfig(config, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, sink)

	sink.KeyChanged(context.Background(), redis.KeyEvent{Op: redis.OpExpire, Key: "session:1", TTL: 30 * time.Second, At: time.Now()})
	sink.KeyChanged(context.Background(), redis.KeyEvent{Op: redis.OpPersist, Key: "session:1", TTL: redis.NotExpire, At: time.Now()})
	require.NoError(t, sink.Close())

	consumer, err := sarama.NewConsumer(brokers, sarama.NewConfig())
	require.NoError(t, err)
	defer consumer.Close()

	pc, err := consumer.ConsumePartition(config.Topic, 0, sarama.OffsetOldest)
	require.NoError(t, err)
	defer pc.Close()

	var got []Event
	timeout := time.After(10 * time.Second)
	for len(got) < 2 {
		select {
		case msg := <-pc.Messages():
			assert.Equal(t, "session:1", string(msg.Key))
			var ev Event
			require.NoError(t, json.Unmarshal(msg.Value, &ev))
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("Timed out waiting for events, got %d", len(got))
		}
	}

	// One key maps to one partition, so order is preserved.
	assert.Equal(t, redis.OpExpire, got[0].Op)
	assert.Equal(t, redis.OpPersist, got[1].Op)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestProducerAsyncMessages(t *testing.T) {
	brokers := setupKafka(t)

	config := DefaultConfig()
	config.Brokers = brokers
	config.Topic = "test-async-producer"

	successes := make(chan *sarama.ProducerMessage, 5)
	producer, err := NewProducer(config, redis.JSONCodec{}, ProducerOptions{
		ErrorHandler: func(err error) {
			t.Errorf("unexpected delivery error: %v", err)
		},
		SuccessHandler: func(msg *sarama.ProducerMessage) {
			successes <- msg
		},
	})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		err := producer.SendMessage(config.Topic, "key", map[string]int{"n": i}, nil)
		assert.NoError(t, err)
	}
	require.NoError(t, producer.Close())

	assert.Len(t, successes, 5)
}
