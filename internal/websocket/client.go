package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/metrics"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one authenticated connection. It sits between the socket and the hub.
type Client struct {
	ID          string
	UserID      uuid.UUID
	Role        string
	ConnectedAt time.Time

	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

// Outbound exposes the send buffer. The hub closes it on disconnect.
func (c *Client) Outbound() <-chan []byte {
	return c.send
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// readPump pumps frames from the websocket connection to the inbound router.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Disconnect(c.ID)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"conn_id": c.ID,
					"user_id": c.UserID,
					"error":   err.Error(),
				})
			}
			return
		}
		c.hub.handleInbound(ctx, c, frame)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One frame per event; clients parse each frame as a single JSON envelope.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) handleInbound(ctx context.Context, c *Client, frame []byte) {
	kind, err := h.router.Dispatch(ctx, c, frame)
	if err == nil {
		metrics.InboundCommands.WithLabelValues(string(kind), "ok").Inc()
		return
	}

	var unknown ErrUnknownCommand
	if errors.As(err, &unknown) {
		metrics.InboundCommands.WithLabelValues("other", "unknown").Inc()
	} else {
		metrics.InboundCommands.WithLabelValues(string(kind), "error").Inc()
	}
	h.logger.Warn("Hub", "Inbound command failed", map[string]interface{}{
		"conn_id": c.ID,
		"user_id": c.UserID,
		"kind":    kind,
		"error":   err.Error(),
	})
}
