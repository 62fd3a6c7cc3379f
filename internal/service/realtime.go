package service

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/logger"
	"github.com/filezingme/BibiChat-sub000/internal/websocket"
	"github.com/filezingme/BibiChat-sub000/pkg/events"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Emitter pushes events to user rooms. The socket hub implements it.
type Emitter interface {
	EmitToUser(userID uuid.UUID, event websocket.OutboundEvent) int
	ConnectedUsers() []websocket.ConnectedUser
}

// PresenceReader answers online checks for offline notices.
type PresenceReader interface {
	IsOnline(userID uuid.UUID) bool
}

// UserDirectory resolves user records.
type UserDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.User, error)
}

// publishBestEffort publishes evt when a bus is configured. Bus failures never fail the caller;
// the write they describe has already been committed.
func publishBestEffort(ctx context.Context, pub events.Publisher, log logger.ILogger, evt events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, evt); err != nil {
		log.Warn("EventBus", "Failed to publish event", map[string]interface{}{
			"type":  evt.EventType(),
			"error": err.Error(),
		})
	}
}

// keyedMutex serializes work per key, e.g. per conversation.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// messageIDs issues ULIDs that sort in creation order, including within one millisecond.
type messageIDs struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newMessageIDs() *messageIDs {
	return &messageIDs{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *messageIDs) New(t time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
