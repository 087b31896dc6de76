package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "order.events"}

	ev := OrderPlacedEvent{
		Type:        EventOrderPlaced,
		OrderID:     "o-1",
		UserID:      "u-1",
		TotalAmount: 1998,
		ItemCount:   2,
		OccurredAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), ev.OrderID, ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "o-1", string(msg.Key))

	var got OrderPlacedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev, got)

	//traceparentが載っている
	assert.NotEmpty(t, NewMessageCarrier(&msg).Get("traceparent"))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &Producer{writer: w, topic: "order.events"}

	err := p.Publish(context.Background(), "o-1", OrderStatusChangedEvent{Type: EventOrderStatusChanged})
	assert.EqualError(t, err, "broker down")
}

func TestMessageCarrier_SetOverwrites(t *testing.T) {
	msg := kafka.Message{}
	c := NewMessageCarrier(&msg)

	c.Set("k", "v1")
	c.Set("k", "v2")

	assert.Equal(t, "v2", c.Get("k"))
	assert.Equal(t, []string{"k"}, c.Keys())
	assert.Equal(t, "", c.Get("missing"))
}
