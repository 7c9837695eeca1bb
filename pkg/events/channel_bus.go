package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// ChannelBus delivers events in process over a watermill GoChannel. It stands
// in for NATS when no broker is reachable and backs the tests.
type ChannelBus struct {
	pubSub *gochannel.GoChannel
}

func NewChannelBus(pubSub *gochannel.GoChannel) *ChannelBus {
	return &ChannelBus{pubSub: pubSub}
}

func (b *ChannelBus) Publish(ctx context.Context, event Event) error {
	payload, err := Encode(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return b.pubSub.Publish(Subject(event.EventType()), msg)
}

// Subscribe streams decoded events of one type until ctx is done. Malformed
// messages are acked and skipped.
func (b *ChannelBus) Subscribe(ctx context.Context, eventType string) (<-chan BaseEvent, error) {
	messages, err := b.pubSub.Subscribe(ctx, Subject(eventType))
	if err != nil {
		return nil, err
	}

	out := make(chan BaseEvent)
	go func() {
		defer close(out)
		for msg := range messages {
			evt, err := Decode(msg.Payload)
			msg.Ack()
			if err != nil {
				continue
			}
			select {
			case out <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
