package presence

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultThreshold is how long a user stays online after the last connection closes.
const DefaultThreshold = 5 * time.Minute

type record struct {
	activeConnections int
	lastActiveAt      time.Time
}

// Snapshot is a point-in-time copy of one user's presence.
type Snapshot struct {
	UserID            uuid.UUID
	Online            bool
	ActiveConnections int
	LastActiveAt      time.Time // zero when the user has not connected since start
}

// Tracker aggregates per-user connection counts in memory.
// Only the socket gateway calls OnConnect and OnDisconnect.
type Tracker struct {
	mu        sync.RWMutex
	records   map[uuid.UUID]*record
	threshold time.Duration
	now       func() time.Time
}

func NewTracker(threshold time.Duration) *Tracker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Tracker{
		records:   make(map[uuid.UUID]*record),
		threshold: threshold,
		now:       time.Now,
	}
}

// WithClock replaces the time source. Tests use it to step past the threshold.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

func (t *Tracker) OnConnect(userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[userID]
	if !ok {
		r = &record{}
		t.records[userID] = r
	}
	r.activeConnections++
	r.lastActiveAt = t.now()
}

// OnDisconnect decrements the count, never below zero, and restarts the grace window.
func (t *Tracker) OnDisconnect(userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[userID]
	if !ok {
		return
	}
	if r.activeConnections > 0 {
		r.activeConnections--
	}
	r.lastActiveAt = t.now()
}

// Touch refreshes lastActiveAt for a user with a live connection.
func (t *Tracker) Touch(userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r, ok := t.records[userID]; ok {
		r.lastActiveAt = t.now()
	}
}

func (t *Tracker) IsOnline(userID uuid.UUID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.records[userID]
	if !ok {
		return false
	}
	return t.online(r)
}

func (t *Tracker) online(r *record) bool {
	return r.activeConnections > 0 || t.now().Sub(r.lastActiveAt) < t.threshold
}

func (t *Tracker) Snapshot(userID uuid.UUID) Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Snapshot{UserID: userID}
	if r, ok := t.records[userID]; ok {
		s.Online = t.online(r)
		s.ActiveConnections = r.activeConnections
		s.LastActiveAt = r.lastActiveAt
	}
	return s
}

// OnlineUsers returns every user currently considered online.
func (t *Tracker) OnlineUsers() []uuid.UUID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	res := make([]uuid.UUID, 0, len(t.records))
	for id, r := range t.records {
		if t.online(r) {
			res = append(res, id)
		}
	}
	return res
}
