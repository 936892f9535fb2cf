package events

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Bus is the in-process pub/sub used for notification fan-out. It is both
// an EventPublisher and the subscriber side the consumers read from.
type Bus struct {
	channel *gochannel.GoChannel
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		channel: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NewSlogLogger(logger),
		),
	}
}

func (b *Bus) Publish(ctx context.Context, event Event) error {
	msg, err := marshalMessage(event)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)
	return b.channel.Publish(event.Type, msg)
}

// Subscribe returns the message stream for one topic. Messages must be
// Acked by the consumer.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.channel.Subscribe(ctx, topic)
}

func (b *Bus) Close() error {
	return b.channel.Close()
}
