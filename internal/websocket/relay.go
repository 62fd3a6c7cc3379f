package websocket

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const relayChannel = "cluster_events"

type relayPayload struct {
	Origin  string          `json:"origin"`
	Room    string          `json:"room"`
	Event   EventName       `json:"event"`
	Message json.RawMessage `json:"message"`
}

func (h *Hub) publishRelay(room string, name EventName, data []byte) {
	payload, err := json.Marshal(relayPayload{
		Origin:  h.instanceID,
		Room:    room,
		Event:   name,
		Message: data,
	})
	if err != nil {
		return
	}
	if err := h.rdb.Publish(context.Background(), relayChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Relay publish failed", map[string]interface{}{"error": err.Error()})
	}
}

// subscribeRelay delivers events emitted on other nodes to local members of the room.
// Messages this node published itself are skipped; they were already delivered locally.
func (h *Hub) subscribeRelay(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, relayChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.onRelayMessage(msg)
		}
	}
}

func (h *Hub) onRelayMessage(msg *redis.Message) {
	var payload relayPayload
	if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
		h.logger.Warn("Hub", "Relay message parse error", map[string]interface{}{"error": err.Error()})
		return
	}
	if payload.Origin == h.instanceID {
		return
	}
	h.deliverLocal(payload.Room, payload.Event, payload.Message)
}
