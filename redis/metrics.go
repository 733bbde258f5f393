package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

type startKey struct{}

// Metrics counts and times every command sent through the pool. It is
// installed as a go-redis hook by WithMetrics.
type Metrics struct {
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	Pipelines       *prometheus.CounterVec
}

var _ redis.Hook = (*Metrics)(nil)

func NewMetrics() *Metrics {
	return &Metrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redis_commands_total",
			Help: "Total number of Redis commands by outcome",
		}, []string{"command", "status"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "redis_command_duration_seconds",
			Help:    "Time taken by Redis commands",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"command"}),
		Pipelines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redis_pipelines_total",
			Help: "Total number of Redis pipelines and transactions by outcome",
		}, []string{"status"}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Commands, m.CommandDuration, m.Pipelines} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) BeforeProcess(ctx context.Context, _ redis.Cmder) (context.Context, error) {
	return context.WithValue(ctx, startKey{}, time.Now()), nil
}

func (m *Metrics) AfterProcess(ctx context.Context, cmd redis.Cmder) error {
	name := cmd.Name()
	if start, ok := ctx.Value(startKey{}).(time.Time); ok {
		m.CommandDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
	m.Commands.WithLabelValues(name, status(cmd.Err())).Inc()
	return nil
}

func (m *Metrics) BeforeProcessPipeline(ctx context.Context, _ []redis.Cmder) (context.Context, error) {
	return ctx, nil
}

func (m *Metrics) AfterProcessPipeline(_ context.Context, cmds []redis.Cmder) error {
	result := "ok"
	for _, cmd := range cmds {
		m.Commands.WithLabelValues(cmd.Name(), status(cmd.Err())).Inc()
		if s := status(cmd.Err()); s == "error" {
			result = s
		}
	}
	m.Pipelines.WithLabelValues(result).Inc()
	return nil
}

// status treats a nil reply as a successful miss rather than a failure.
func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, redis.Nil):
		return "miss"
	default:
		return "error"
	}
}
