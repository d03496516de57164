package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
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

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "tutorslot.bookings"}

	err := p.Publish(context.Background(), Event{Type: BookingCreated, BookingID: 17, TutorID: 4, StudentID: 9, LessonDate: "2025-03-10", LessonTime: "10:00"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "17", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, BookingCreated, string(msg.Headers[0].Value))

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.OccurredAt.IsZero())
	assert.Equal(t, 4, got.TutorID)
	assert.Equal(t, "10:00", got.LessonTime)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}}

	err := p.Publish(context.Background(), Event{Type: BookingCancelled, BookingID: 1})
	assert.ErrorContains(t, err, "broker down")
}

func TestNew(t *testing.T) {
	assert.IsType(t, NopPublisher{}, New(nil, "topic"))
	assert.IsType(t, &KafkaPublisher{}, New([]string{"localhost:9092"}, "topic"))
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), Event{Type: PaymentCaptured}))
}
