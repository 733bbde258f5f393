package events

import (
	"github.com/prometheus/client_golang/prometheus"
)

type ProducerMetrics struct {
	EventsPublished *prometheus.CounterVec
	PublishErrors   *prometheus.CounterVec
}

func NewProducerMetrics() *ProducerMetrics {
	return &ProducerMetrics{
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redis_key_events_published_total",
			Help: "Total number of key lifecycle events handed to Kafka",
		}, []string{"topic", "op"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redis_key_events_errors_total",
			Help: "Total number of key lifecycle events that failed to publish",
		}, []string{"topic"}),
	}
}

func (m *ProducerMetrics) Register(reg prometheus.Registerer) error {
	if err := reg.Register(m.EventsPublished); err != nil {
		return err
	}
	return reg.Register(m.PublishErrors)
}
