package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	InvoiceCreated       = "INVOICE_CREATED"
	InvoiceStatusChanged = "INVOICE_STATUS_CHANGED"
	CouponRedeemed       = "COUPON_REDEEMED"
	CatalogChanged       = "CATALOG_CHANGED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "INVOICE_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Bus is anything events can be handed to: NATS JetStream in production, an
// in-process channel otherwise.
type Bus interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Subject is the bus subject an event type is published on.
func Subject(eventType string) string {
	return "entitlements." + eventType
}

type envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

// Encode serializes an event with its type and timestamp so consumers can
// rebuild it without guessing from the subject.
func Encode(event Event) ([]byte, error) {
	data, err := json.Marshal(envelope{
		Type:       event.EventType(),
		OccurredAt: event.Timestamp(),
		Data:       event.Payload(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}
	return data, nil
}

func Decode(raw []byte) (BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return BaseEvent{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}
