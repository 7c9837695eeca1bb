package nats

import (
	"context"
	"fmt"
	"log"

	"listing-billing-be/pkg/events"

	"github.com/nats-io/nats.go"
)

// EventHandler is a function that processes an event.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber fans events out to every instance. It uses plain subscriptions
// rather than durable consumers: a missed event only costs a cache refresh.
type Subscriber struct {
	nc   *nats.Conn
	subs []*nats.Subscription
}

func NewSubscriber(url string) (*Subscriber, error) {
	nc, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc}, nil
}

// Subscribe registers handler for one event type.
func (s *Subscriber) Subscribe(eventType string, handler EventHandler) error {
	subject := events.Subject(eventType)
	sub, err := s.nc.Subscribe(subject, func(msg *nats.Msg) {
		evt, err := events.Decode(msg.Data)
		if err != nil {
			log.Printf("Error decoding event on %s: %v", msg.Subject, err)
			return
		}
		if err := handler(context.Background(), evt); err != nil {
			log.Printf("Handler failed for event %s: %v", msg.Subject, err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
