package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"factorypulse-gateway/internal/config"
	"factorypulse-gateway/internal/data"
	"factorypulse-gateway/internal/logger"
	"factorypulse-gateway/internal/metrics"
)

var ErrPublisherClosed = errors.New("publisher is closed")

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AlertPublisher forwards raised alerts to a Kafka topic, keyed by metric.
// Fed by the single alerting delivery goroutine, alerts of one metric stay
// ordered within their partition.
type AlertPublisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	closed  atomic.Bool
}

func NewAlertPublisher(cfg config.KafkaConfig) (*AlertPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic is required")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{}, // Partition by key
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return newAlertPublisher(writer, cfg.Topic, cfg.PublishTimeout), nil
}

func newAlertPublisher(w messageWriter, topic string, timeout time.Duration) *AlertPublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AlertPublisher{writer: w, topic: topic, timeout: timeout}
}

// Name implements alerting.Sink.
func (p *AlertPublisher) Name() string { return "kafka" }

// Deliver implements alerting.Sink.
func (p *AlertPublisher) Deliver(ctx context.Context, alert data.Alert) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	value, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("serialize alert %s: %w", alert.ID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(alert.Kind),
		Value: value,
		Time:  alert.RaisedAt,
		Headers: []kafka.Header{
			{Key: "alert_id", Value: []byte(alert.ID)},
		},
	})
	if err != nil {
		metrics.KafkaPublishTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("publish alert %s to %s: %w", alert.ID, p.topic, err)
	}

	metrics.KafkaPublishTotal.WithLabelValues("success").Inc()
	log := logger.WithComponent("kafka")
	log.Debug().Str("alert_id", alert.ID).Str("topic", p.topic).Msg("alert published")
	return nil
}

func (p *AlertPublisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}
