package presence

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewTracker(5 * time.Minute).WithClock(clock.Now), clock
}

func TestTracker_UnknownUserIsOffline(t *testing.T) {
	tracker, _ := newTestTracker()
	assert.False(t, tracker.IsOnline(uuid.New()))
}

func TestTracker_OnlineImmediatelyAfterConnect(t *testing.T) {
	tracker, clock := newTestTracker()
	user := uuid.New()

	tracker.OnConnect(user)
	assert.True(t, tracker.IsOnline(user))

	clock.Advance(time.Hour)
	assert.True(t, tracker.IsOnline(user), "an open connection keeps the user online regardless of time")
}

func TestTracker_GraceWindowAfterLastDisconnect(t *testing.T) {
	tracker, clock := newTestTracker()
	user := uuid.New()

	tracker.OnConnect(user)
	clock.Advance(10 * time.Minute)
	tracker.OnDisconnect(user)

	clock.Advance(4*time.Minute + 59*time.Second)
	assert.True(t, tracker.IsOnline(user))

	clock.Advance(time.Second)
	assert.False(t, tracker.IsOnline(user))
}

func TestTracker_MultipleConnections(t *testing.T) {
	tracker, clock := newTestTracker()
	user := uuid.New()

	tracker.OnConnect(user)
	tracker.OnConnect(user)
	tracker.OnDisconnect(user)

	clock.Advance(time.Hour)
	snap := tracker.Snapshot(user)
	assert.True(t, snap.Online)
	assert.Equal(t, 1, snap.ActiveConnections)
}

func TestTracker_CountNeverNegative(t *testing.T) {
	tracker, clock := newTestTracker()
	user := uuid.New()

	tracker.OnConnect(user)
	tracker.OnDisconnect(user)
	tracker.OnDisconnect(user)
	tracker.OnDisconnect(user)
	assert.Equal(t, 0, tracker.Snapshot(user).ActiveConnections)

	tracker.OnConnect(user)
	clock.Advance(time.Hour)
	assert.Equal(t, 1, tracker.Snapshot(user).ActiveConnections)
	assert.True(t, tracker.IsOnline(user))
}

func TestTracker_TouchExtendsWindow(t *testing.T) {
	tracker, clock := newTestTracker()
	user := uuid.New()

	tracker.OnConnect(user)
	tracker.OnDisconnect(user)
	clock.Advance(4 * time.Minute)
	tracker.Touch(user)
	clock.Advance(4 * time.Minute)

	assert.True(t, tracker.IsOnline(user))
}

func TestTracker_OnlineUsers(t *testing.T) {
	tracker, clock := newTestTracker()
	connected, gone := uuid.New(), uuid.New()

	tracker.OnConnect(connected)
	tracker.OnConnect(gone)
	tracker.OnDisconnect(gone)

	assert.ElementsMatch(t, []uuid.UUID{connected, gone}, tracker.OnlineUsers())

	clock.Advance(6 * time.Minute)
	assert.ElementsMatch(t, []uuid.UUID{connected}, tracker.OnlineUsers())
	assert.False(t, tracker.Snapshot(gone).LastActiveAt.IsZero())
}

func TestTracker_ConcurrentConnects(t *testing.T) {
	tracker, _ := newTestTracker()
	user := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.OnConnect(user)
			tracker.OnDisconnect(user)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, tracker.Snapshot(user).ActiveConnections)
	assert.True(t, tracker.IsOnline(user))
}
