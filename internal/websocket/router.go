package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type InboundKind string

const (
	InboundTouch            InboundKind = "touch"
	InboundNotificationRead InboundKind = "notification.read"
)

type TouchCommand struct{}

type NotificationReadCommand struct {
	NotificationID uuid.UUID `json:"notificationId"`
}

// ErrUnknownCommand is returned for frames whose type has no registered handler.
type ErrUnknownCommand struct {
	Kind InboundKind
}

func (e ErrUnknownCommand) Error() string {
	return fmt.Sprintf("unknown inbound command %q", e.Kind)
}

type inboundFrame struct {
	Type InboundKind     `json:"type"`
	Data json.RawMessage `json:"data"`
}

type rawHandler func(ctx context.Context, client *Client, data json.RawMessage) error

// Router is the typed dispatch table for client-to-server frames.
type Router struct {
	handlers map[InboundKind]rawHandler
}

func NewRouter() *Router {
	return &Router{handlers: make(map[InboundKind]rawHandler)}
}

// Handle registers fn for kind. The frame's data is decoded into T before fn runs.
func Handle[T any](r *Router, kind InboundKind, fn func(ctx context.Context, client *Client, payload T) error) {
	r.handlers[kind] = func(ctx context.Context, client *Client, data json.RawMessage) error {
		var payload T
		if len(data) > 0 && string(data) != "null" {
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("decode %s payload: %w", kind, err)
			}
		}
		return fn(ctx, client, payload)
	}
}

// Dispatch decodes one frame and runs its handler. It returns the frame kind for logging.
func (r *Router) Dispatch(ctx context.Context, client *Client, frame []byte) (InboundKind, error) {
	var in inboundFrame
	if err := json.Unmarshal(frame, &in); err != nil {
		return "", fmt.Errorf("decode frame: %w", err)
	}
	h, ok := r.handlers[in.Type]
	if !ok {
		return in.Type, ErrUnknownCommand{Kind: in.Type}
	}
	return in.Type, h(ctx, client, in.Data)
}
