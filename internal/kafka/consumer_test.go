package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingEventHandler_Decodes(t *testing.T) {
	var got BookingEvent
	handler := BookingEventHandler(func(_ context.Context, e BookingEvent) error {
		got = e
		return nil
	})

	payload, err := json.Marshal(BookingEvent{Type: EventBookingConfirmed, BookingID: "b1", Status: "PAID", Email: "a@b.co"})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), kafka.Message{Value: payload}))
	assert.Equal(t, EventBookingConfirmed, got.Type)
	assert.Equal(t, "b1", got.BookingID)
	assert.Equal(t, "a@b.co", got.Email)
}

func TestBookingEventHandler_SkipsGarbage(t *testing.T) {
	called := false
	handler := BookingEventHandler(func(context.Context, BookingEvent) error {
		called = true
		return nil
	})

	assert.NoError(t, handler(context.Background(), kafka.Message{Value: []byte("{not json")}))
	assert.False(t, called)
}

func TestBookingEventHandler_PropagatesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	handler := BookingEventHandler(func(context.Context, BookingEvent) error { return boom })

	err := handler(context.Background(), kafka.Message{Value: []byte(`{"type":"booking_cancelled"}`)})
	assert.ErrorIs(t, err, boom)
}

func TestConsumer_CloseNil(t *testing.T) {
	var c *Consumer
	assert.NoError(t, c.Close())
}

type sliceReader struct {
	msgs []kafka.Message
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, context.Canceled
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *sliceReader) Close() error { return nil }

func TestConsumer_ContinuesAfterHandlerError(t *testing.T) {
	c := &Consumer{reader: &sliceReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte(`{"type":"booking_cancelled","booking_id":"b1"}`)},
		{Offset: 2, Value: []byte(`{"type":"booking_cancelled","booking_id":"b2"}`)},
		{Offset: 3, Value: []byte(`{"type":"booking_cancelled","booking_id":"b3"}`)},
	}}}

	var seen []string
	err := c.Consume(context.Background(), BookingEventHandler(func(_ context.Context, e BookingEvent) error {
		seen = append(seen, e.BookingID)
		if e.BookingID == "b1" {
			return errors.New("smtp down")
		}
		return nil
	}))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"b1", "b2", "b3"}, seen)
}
