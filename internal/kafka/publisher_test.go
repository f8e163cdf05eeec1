package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factorypulse-gateway/internal/config"
	"factorypulse-gateway/internal/data"
)

type fakeWriter struct {
	msgs     []kafka.Message
	err      error
	closed   int
	deadline bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed++
	return nil
}

func TestDeliverEncodesAlert(t *testing.T) {
	w := &fakeWriter{}
	p := newAlertPublisher(w, "factory.alerts", time.Second)

	alert := data.Alert{ID: "abc", Kind: data.Energy, Message: "Excessive power consumption detected!",
		RaisedAt: time.Date(2025, 1, 30, 10, 0, 0, 0, time.UTC)}
	require.NoError(t, p.Deliver(context.Background(), alert))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "energy", string(msg.Key))
	assert.True(t, w.deadline, "publish must be bounded by a timeout")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "abc", decoded["id"])
	assert.Equal(t, "energy", decoded["metricKind"])
	assert.Equal(t, "2025-01-30T10:00:00Z", decoded["raisedAt"])
}

func TestDeliverWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := newAlertPublisher(&fakeWriter{err: boom}, "t", 0)

	err := p.Deliver(context.Background(), data.Alert{ID: "x", Kind: data.Temperature})
	assert.ErrorIs(t, err, boom)
}

func TestCloseIsIdempotent(t *testing.T) {
	w := &fakeWriter{}
	p := newAlertPublisher(w, "t", 0)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, w.closed)
	assert.ErrorIs(t, p.Deliver(context.Background(), data.Alert{}), ErrPublisherClosed)
}

func TestNewAlertPublisherValidates(t *testing.T) {
	_, err := NewAlertPublisher(config.KafkaConfig{Topic: "t"})
	assert.Error(t, err)

	_, err = NewAlertPublisher(config.KafkaConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)

	p, err := NewAlertPublisher(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"})
	require.NoError(t, err)
	assert.Equal(t, "kafka", p.Name())
	require.NoError(t, p.Close())
}
