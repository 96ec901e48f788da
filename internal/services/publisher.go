package services

import (
	"context"
	"encoding/json"
	"fmt"

	"event-builder/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher announces finished submissions to other services.
type EventPublisher interface {
	PublishSubmitted(ctx context.Context, rec models.SubmissionRecord) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokerURL, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokerURL),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// PublishSubmitted writes one message keyed by draft id so that every
// submission of a draft lands on the same partition.
func (p *KafkaPublisher) PublishSubmitted(ctx context.Context, rec models.SubmissionRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(rec.DraftID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "source", Value: []byte("event-builder")},
			{Key: "operation", Value: []byte("event.submitted")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
