package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/metrics"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/apperror"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/logger"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/serverutils"
	"github.com/filezingme/BibiChat-sub000/internal/presence"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultSendBuffer = 256

// Authenticator resolves a credential token to an identity.
type Authenticator interface {
	Parse(token string) (serverutils.Identity, error)
}

// ConnectedUser is one distinct user with at least one open connection on this node.
type ConnectedUser struct {
	UserID uuid.UUID
	Role   string
}

type Options struct {
	SendBuffer int
}

type Hub struct {
	// Lock for conns and rooms. Send buffers are closed only while it is held for writing.
	mu    sync.RWMutex
	conns map[string]*Client
	rooms map[string]map[string]*Client

	auth       Authenticator
	presence   *presence.Tracker
	router     *Router
	sendBuffer int

	// Redis connection for cross-instance relay; nil on a single node.
	rdb        *redis.Client
	instanceID string

	logger logger.ILogger
}

func NewHub(auth Authenticator, tracker *presence.Tracker, router *Router, rdb *redis.Client, log logger.ILogger, opts Options) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if router == nil {
		router = NewRouter()
	}
	return &Hub{
		conns:      make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		auth:       auth,
		presence:   tracker,
		router:     router,
		sendBuffer: opts.SendBuffer,
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// Authenticate validates the handshake credential. Nothing is registered on failure.
func (h *Hub) Authenticate(token string) (serverutils.Identity, error) {
	identity, err := h.auth.Parse(token)
	if err != nil {
		metrics.AuthFailures.Inc()
		h.logger.Warn("Hub", "Handshake refused", map[string]interface{}{"error": err.Error()})
		if _, ok := apperror.As(err); ok {
			return serverutils.Identity{}, err
		}
		return serverutils.Identity{}, apperror.Wrap(apperror.KindAuth, "invalid credential token", err)
	}
	return identity, nil
}

// Register creates a connection for an authenticated identity and joins it to the user's room.
func (h *Hub) Register(identity serverutils.Identity) *Client {
	client := &Client{
		ID:          uuid.NewString(),
		UserID:      identity.UserID,
		Role:        identity.Role,
		ConnectedAt: time.Now().UTC(),
		hub:         h,
		send:        make(chan []byte, h.sendBuffer),
	}

	h.mu.Lock()
	h.conns[client.ID] = client
	h.joinLocked(client, UserRoom(client.UserID))
	h.mu.Unlock()

	h.presence.OnConnect(client.UserID)
	metrics.ActiveConnections.Inc()
	h.logger.Info("Hub", "Client registered", map[string]interface{}{
		"conn_id": client.ID,
		"user_id": client.UserID,
	})
	return client
}

// Connect is Authenticate followed by Register.
func (h *Hub) Connect(token string) (*Client, error) {
	identity, err := h.Authenticate(token)
	if err != nil {
		return nil, err
	}
	return h.Register(identity), nil
}

// Disconnect removes the connection from every room and closes its send buffer.
// Calling it for an unknown or already removed connection is a no-op.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	client, ok := h.conns[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, connID)
	for room, members := range h.rooms {
		if _, in := members[connID]; in {
			delete(members, connID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	client.closeSend()
	h.mu.Unlock()

	h.presence.OnDisconnect(client.UserID)
	metrics.ActiveConnections.Dec()
	h.logger.Info("Hub", "Client unregistered", map[string]interface{}{
		"conn_id": client.ID,
		"user_id": client.UserID,
	})
}

func (h *Hub) JoinRoom(connID, room string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.conns[connID]
	if !ok {
		return apperror.NotFound("connection not found")
	}
	h.joinLocked(client, room)
	return nil
}

func (h *Hub) joinLocked(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[client.ID] = client
}

// EmitToRoom pushes event to every connection in room, here and, with a relay, on other nodes.
// Delivery is best effort: it returns the number of local connections that accepted the event.
func (h *Hub) EmitToRoom(room string, event OutboundEvent) int {
	data, err := Encode(event)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode event", map[string]interface{}{
			"event": event.EventName(),
			"error": err.Error(),
		})
		return 0
	}

	delivered := h.deliverLocal(room, event.EventName(), data)
	if h.rdb != nil {
		h.publishRelay(room, event.EventName(), data)
	}
	return delivered
}

func (h *Hub) EmitToUser(userID uuid.UUID, event OutboundEvent) int {
	return h.EmitToRoom(UserRoom(userID), event)
}

func (h *Hub) deliverLocal(room string, name EventName, data []byte) int {
	delivered := 0
	var slow []string

	h.mu.RLock()
	for id, client := range h.rooms[room] {
		select {
		case client.send <- data:
			delivered++
		default:
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	metrics.EventsEmitted.WithLabelValues(string(name)).Add(float64(delivered))
	for _, id := range slow {
		metrics.EventsDropped.WithLabelValues(string(name)).Inc()
		h.logger.Warn("Hub", "Client send buffer full, disconnecting", map[string]interface{}{"conn_id": id})
		h.Disconnect(id)
	}
	return delivered
}

// ConnectedUsers lists each distinct user with an open connection on this node.
func (h *Hub) ConnectedUsers() []ConnectedUser {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[uuid.UUID]bool, len(h.conns))
	res := make([]ConnectedUser, 0, len(h.conns))
	for _, c := range h.conns {
		if seen[c.UserID] {
			continue
		}
		seen[c.UserID] = true
		res = append(res, ConnectedUser{UserID: c.UserID, Role: c.Role})
	}
	return res
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Presence returns the tracker fed by this hub's connect and disconnect hooks.
func (h *Hub) Presence() *presence.Tracker {
	return h.presence
}

// Run starts the relay subscriber when redis is configured and blocks until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeRelay(ctx)
	}
	<-ctx.Done()
}

// Serve owns conn until it closes. It must run inside the websocket handler.
func (h *Hub) Serve(ctx context.Context, client *Client, conn *websocket.Conn) {
	client.conn = conn

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	client.readPump(ctx)
}
