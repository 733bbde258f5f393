package events

import (
	"sync"

	"github.com/IBM/sarama"
	"github.com/pankajvermacr7/rediskit/redis"
)

// Publisher sends one encoded message to a topic.
type Publisher interface {
	SendMessage(topic string, key string, value interface{}, headers map[string]string) error
	Close() error
}

type Producer struct {
	syncProducer  sarama.SyncProducer
	asyncProducer sarama.AsyncProducer
	codec         redis.Codec
	wg            sync.WaitGroup
}

type ProducerOptions struct {
	ErrorHandler   func(error)
	SuccessHandler func(*sarama.ProducerMessage)
}

// NewProducer connects to the brokers in config. Messages are encoded with
// codec, defaulting to JSON.
func NewProducer(config *Config, codec redis.Codec, opts ProducerOptions) (*Producer, error) {
	saramaConfig, err := config.SaramaConfig()
	if err != nil {
		return nil, err
	}
	if codec == nil {
		codec = redis.JSONCodec{}
	}

	p := &Producer{codec: codec}

	if config.ProducerSettings.Async {
		p.asyncProducer, err = sarama.NewAsyncProducer(config.Brokers, saramaConfig)
	} else {
		p.syncProducer, err = sarama.NewSyncProducer(config.Brokers, saramaConfig)
	}
	if err != nil {
		return nil, err
	}

	if p.asyncProducer != nil {
		p.wg.Add(2)
		go p.drainErrors(opts.ErrorHandler)
		go p.drainSuccesses(opts.SuccessHandler)
	}

	return p, nil
}

func (p *Producer) SendMessage(topic string, key string, value interface{}, headers map[string]string) error {
	msgBytes, err := p.codec.Encode(value)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(msgBytes),
	}

	for k, v := range headers {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	if p.asyncProducer != nil {
		p.asyncProducer.Input() <- msg
		return nil
	}

	_, _, err = p.syncProducer.SendMessage(msg)
	return err
}

func (p *Producer) drainErrors(handler func(error)) {
	defer p.wg.Done()
	for err := range p.asyncProducer.Errors() {
		if handler != nil {
			handler(err)
		}
	}
}

func (p *Producer) drainSuccesses(handler func(*sarama.ProducerMessage)) {
	defer p.wg.Done()
	for msg := range p.asyncProducer.Successes() {
		if handler != nil {
			handler(msg)
		}
	}
}

// Close flushes pending messages and waits for the result handlers to finish.
func (p *Producer) Close() error {
	if p.asyncProducer != nil {
		err := p.asyncProducer.Close()
		p.wg.Wait()
		return err
	}
	return p.syncProducer.Close()
}
