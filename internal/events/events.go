// Package events publishes booking and payment lifecycle events for
// downstream consumers such as reminder and notification workers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"tutorslot/internal/logger"
	"tutorslot/internal/metrics"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	BookingCreated   = "booking.created"
	BookingConfirmed = "booking.confirmed"
	BookingCompleted = "booking.completed"
	BookingCancelled = "booking.cancelled"
	PaymentCaptured  = "payment.captured"
)

type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	BookingID  int               `json:"booking_id"`
	TutorID    int               `json:"tutor_id"`
	StudentID  int               `json:"student_id"`
	LessonDate string            `json:"lesson_date,omitempty"`
	LessonTime string            `json:"lesson_time,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: writer, topic: topic}
}

// Publish keys messages by booking so one booking's events stay ordered
// within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", e.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.Itoa(e.BookingID)),
		Value: data,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.RecordEvent(e.Type, "failed")
		return fmt.Errorf("failed to publish %s event: %w", e.Type, err)
	}

	metrics.RecordEvent(e.Type, "success")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(_ context.Context, e Event) error {
	logger.Debug("event dropped, no broker configured", "type", e.Type, "booking_id", e.BookingID)
	return nil
}

func (NopPublisher) Close() error { return nil }

// New picks the kafka publisher when brokers are set.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}
