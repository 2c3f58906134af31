package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Publisher is what the services depend on; the kafka-backed Producer
// implements it for real deployments.
type Publisher interface {
	Publish(ctx context.Context, topic, eventType string, key []byte, payload any) error
}

type Producer struct {
	w           *kafka.Writer
	serviceName string
}

func NewProducer(brokers []string, serviceName string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		serviceName: serviceName,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, eventType string, key []byte, payload any) error {
	env := Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Producer:   p.serviceName,
		Payload:    MustMarshal(payload),
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: MustMarshal(env),
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(eventType)},
		},
	})
}

func (p *Producer) Close() error { return p.w.Close() }

// Nop is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, []byte, any) error { return nil }
