package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"
)

// Event types published by the storefront.
const (
	TypeProductSubmitted = "product.submitted"
	TypeCartChanged      = "cart.changed"
)

// Event is the envelope written to the storefront topic.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// ProductSubmitted is emitted after the backend accepted a draft.
type ProductSubmitted struct {
	DraftID      string `json:"draftId"`
	Kind         string `json:"kind"`
	ProductID    string `json:"productId,omitempty"`
	VariantCount int    `json:"variantCount"`
	TotalStock   int    `json:"totalStock"`
}

// CartChanged is emitted after an item was added to a session's cart.
type CartChanged struct {
	SessionID string `json:"sessionId"`
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	Count     int    `json:"count"`
}

// Publisher publishes storefront events keyed for partitioning.
type Publisher interface {
	Publish(ctx context.Context, key string, eventType string, data any) error
	Close() error
}

// KafkaPublisher writes events to a single Kafka topic.
type KafkaPublisher struct {
	writer *kafkago.Writer
}

// NewKafkaPublisher creates a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafkago.LeastBytes{},
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
			// Publish runs inside request handlers; flush each event promptly.
			BatchSize:    1,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (k *KafkaPublisher) Publish(ctx context.Context, key string, eventType string, data any) error {
	payload, err := json.Marshal(Event{Type: eventType, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, kafkago.Message{Key: []byte(key), Value: payload}); err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

// NopPublisher drops events. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(_ context.Context, key string, eventType string, _ any) error {
	log.Debug().Str("type", eventType).Str("key", key).Msg("event dropped, no broker configured")
	return nil
}

func (NopPublisher) Close() error { return nil }

// New returns a Kafka publisher when brokers are set, NopPublisher otherwise.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}
