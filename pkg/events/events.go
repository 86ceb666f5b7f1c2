package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// TypeBookingClaimed is emitted once per successful claim.
const TypeBookingClaimed = "booking.claimed"

// BookingClaimed describes a newly created booking.
type BookingClaimed struct {
	EventID      string    `json:"event_id"`
	BookingID    string    `json:"booking_id"`
	OwnerID      string    `json:"owner_id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	VisitorName  string    `json:"visitor_name"`
	VisitorEmail string    `json:"visitor_email"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher delivers booking events to downstream consumers.
type Publisher interface {
	PublishBookingClaimed(ctx context.Context, event BookingClaimed) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by owner so one owner's events stay ordered.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher builds a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, topic: topic}
}

// PublishBookingClaimed serialises and writes one event.
func (p *KafkaPublisher) PublishBookingClaimed(ctx context.Context, event BookingClaimed) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", TypeBookingClaimed, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.OwnerID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID)},
			{Key: "event_type", Value: []byte(TypeBookingClaimed)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s to %s: %w", TypeBookingClaimed, p.topic, err)
	}
	return nil
}

// Close flushes pending writes.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher records events in the application log when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher builds a log-only publisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishBookingClaimed(_ context.Context, event BookingClaimed) error {
	p.logger.Info("booking event",
		zap.String("event_type", TypeBookingClaimed),
		zap.String("event_id", event.EventID),
		zap.String("booking_id", event.BookingID),
		zap.String("owner_id", event.OwnerID),
		zap.Time("start", event.Start),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
