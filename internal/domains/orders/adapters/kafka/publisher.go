package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Apurer/aims-commerce/internal/domains/orders/domain"
	"github.com/Apurer/aims-commerce/internal/domains/orders/ports"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Envelope is the JSON value written for every order event.
type Envelope struct {
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OrderID    int64           `json:"orderId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher writes order events keyed by order id so one order's events stay ordered.
type Publisher struct {
	writer MessageWriter
	newID  func() string
}

func NewPublisher(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer, newID: func() string { return uuid.NewString() }}
}

func (p *Publisher) Publish(ctx context.Context, events ...domain.Event) error {
	if p == nil || p.writer == nil {
		return fmt.Errorf("kafka order publisher not configured")
	}
	if len(events) == 0 {
		return nil
	}
	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", event.EventName(), err)
		}
		value, err := json.Marshal(Envelope{
			EventID:    p.newID(),
			EventType:  event.EventName(),
			OrderID:    event.AggregateID(),
			OccurredAt: event.OccurredAt().UTC(),
			Payload:    payload,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal envelope: %w", err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(strconv.FormatInt(event.AggregateID(), 10)),
			Value: value,
			Time:  event.OccurredAt(),
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(event.EventName())},
			},
		})
	}
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed to write order events to kafka: %w", err)
	}
	return nil
}
