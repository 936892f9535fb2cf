package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// KafkaPublisher forwards domain events to a Kafka cluster so external
// consumers (reporting, audit) can follow the platform. It is optional and
// only wired when brokers are configured.
type KafkaPublisher struct {
	publisher message.Publisher
}

func NewKafkaPublisher(brokers []string, logger *slog.Logger) (*KafkaPublisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return &KafkaPublisher{publisher: publisher}, nil
}

func (k *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := marshalMessage(event)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)
	return k.publisher.Publish(event.Type, msg)
}

func (k *KafkaPublisher) Close() error {
	return k.publisher.Close()
}
