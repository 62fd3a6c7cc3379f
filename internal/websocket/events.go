package websocket

import (
	"encoding/json"

	"github.com/filezingme/BibiChat-sub000/internal/dto"

	"github.com/google/uuid"
)

type EventName string

const (
	EventNotification         EventName = "notification"
	EventDirectMessage        EventName = "direct_message"
	EventDirectMessageUpdated EventName = "direct_message_updated"
)

// OutboundEvent is a payload the gateway can push to a room.
// Each event kind is its own type so emitters cannot pair a name with the wrong payload.
type OutboundEvent interface {
	EventName() EventName
}

type NotificationEvent struct {
	dto.NotificationResponse
}

func (NotificationEvent) EventName() EventName { return EventNotification }

type DirectMessageEvent struct {
	dto.DirectMessageResponse
}

func (DirectMessageEvent) EventName() EventName { return EventDirectMessage }

// DirectMessageUpdatedEvent carries a message whose reactions changed.
type DirectMessageUpdatedEvent struct {
	dto.DirectMessageResponse
}

func (DirectMessageUpdatedEvent) EventName() EventName { return EventDirectMessageUpdated }

type envelope struct {
	Type EventName   `json:"type"`
	Data interface{} `json:"data"`
}

// Encode renders the wire frame {"type": ..., "data": ...}.
func Encode(event OutboundEvent) ([]byte, error) {
	return json.Marshal(envelope{Type: event.EventName(), Data: event})
}

// UserRoom is the room every connection of userID joins at handshake.
func UserRoom(userID uuid.UUID) string {
	return "user:" + userID.String()
}
