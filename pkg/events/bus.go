package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler processes one event. A non-nil error asks the bus to redeliver when it can.
type Handler func(ctx context.Context, event Event) error

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Subscriber interface {
	// Subscribe delivers every event of eventType to handler. durable names the consumer
	// so a restarted process resumes where it stopped on buses that persist.
	Subscribe(eventType, durable string, handler Handler) error
}

type Bus interface {
	Publisher
	Subscriber
	Close() error
}

// Subject is the topic an event type is published on.
func Subject(eventType string) string {
	return "events." + eventType
}

// Marshal encodes an event with its type and timestamp so consumers can rebuild it.
func Marshal(event Event) ([]byte, error) {
	return json.Marshal(BaseEvent{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
}

func Unmarshal(data []byte) (BaseEvent, error) {
	var evt BaseEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return BaseEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if evt.Type == "" {
		return BaseEvent{}, fmt.Errorf("decode event: missing type")
	}
	return evt, nil
}

// Decode converts an event payload into a typed struct through its JSON form.
func Decode(event Event, dst interface{}) error {
	raw, err := json.Marshal(event.Payload())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
