package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DIRECT_MESSAGE_SENT").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event types exchanged with the rest of the platform.
const (
	// Published by this service.
	TypeNotificationDispatched = "NOTIFICATION_DISPATCHED"
	TypeDirectMessageSent      = "DIRECT_MESSAGE_SENT"

	// Consumed by this service.
	TypeNotificationRequested = "NOTIFICATION_REQUESTED"
	TypeChatTurnCompleted     = "CHAT_TURN_COMPLETED"
)

// BaseEvent is the concrete event carried on every bus.
type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurredAt"`
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
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
