package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/logger"
	"github.com/filezingme/BibiChat-sub000/internal/repository/memory"
	"github.com/filezingme/BibiChat-sub000/internal/repository/unitofwork"
	"github.com/filezingme/BibiChat-sub000/internal/testutil"
	"github.com/filezingme/BibiChat-sub000/internal/websocket"
	"github.com/filezingme/BibiChat-sub000/pkg/events"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type emitted struct {
	UserID uuid.UUID
	Event  websocket.OutboundEvent
}

// fakeEmitter stands in for the socket hub and records every emission.
type fakeEmitter struct {
	mu        sync.Mutex
	connected []websocket.ConnectedUser
	events    []emitted
}

func (e *fakeEmitter) connect(userID uuid.UUID, role entity.UserRole) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connected = append(e.connected, websocket.ConnectedUser{UserID: userID, Role: string(role)})
}

func (e *fakeEmitter) EmitToUser(userID uuid.UUID, event websocket.OutboundEvent) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emitted{UserID: userID, Event: event})
	return 1
}

func (e *fakeEmitter) ConnectedUsers() []websocket.ConnectedUser {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]websocket.ConnectedUser(nil), e.connected...)
}

func (e *fakeEmitter) sentTo(userID uuid.UUID, name websocket.EventName) []websocket.OutboundEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var res []websocket.OutboundEvent
	for _, ev := range e.events {
		if ev.UserID == userID && ev.Event.EventName() == name {
			res = append(res, ev.Event)
		}
	}
	return res
}

func (e *fakeEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

// recordingPublisher captures published domain events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := make([]string, len(p.events))
	for i, evt := range p.events {
		res[i] = evt.EventType()
	}
	return res
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db        *gorm.DB
	uow       unitofwork.RepositoryFactory
	directory *memory.UserDirectory
	emitter   *fakeEmitter
	clock     *testClock
	log       logger.ILogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	uow := unitofwork.NewRepositoryFactory(db)
	return &fixture{
		db:        db,
		uow:       uow,
		directory: memory.NewUserDirectory(uow, time.Minute),
		emitter:   &fakeEmitter{},
		clock:     newTestClock(),
		log:       logger.NewNop(),
	}
}

func (f *fixture) user(t *testing.T, name string) uuid.UUID {
	return testutil.SeedUser(t, f.db, name, entity.UserRoleTenant)
}

func (f *fixture) master(t *testing.T) uuid.UUID {
	return testutil.SeedUser(t, f.db, "Master", entity.UserRoleMaster)
}
