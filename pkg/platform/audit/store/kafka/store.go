// Package kafka publishes audit events to a Kafka topic as JSON.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"dcx/internal/platform/kafka/producer"
	audit "dcx/pkg/platform/audit"
)

// Producer is the subset of producer.Producer the store needs.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Store appends audit events to topic, keyed by subject so one applicant's
// events stay ordered within a partition.
type Store struct {
	producer Producer
	topic    string
}

func New(p Producer, topic string) *Store {
	return &Store{producer: p, topic: topic}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	msg := &producer.Message{
		Topic: s.topic,
		Key:   []byte(event.Subject),
		Value: value,
		Headers: map[string]string{
			"action": event.Action,
		},
	}
	if event.RequestID != "" {
		msg.Headers["request_id"] = event.RequestID
	}
	return s.producer.Produce(ctx, msg)
}
