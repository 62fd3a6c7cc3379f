package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/dto"
	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatLogFixture struct {
	*fixture
	svc    *ChatLogService
	master entity.Viewer
	acme   uuid.UUID
	globex uuid.UUID
}

func newChatLogFixture(t *testing.T) *chatLogFixture {
	f := newFixture(t)
	return &chatLogFixture{
		fixture: f,
		svc:     NewChatLogService(f.uow, f.log).WithClock(f.clock.Now),
		master:  entity.Viewer{UserID: f.master(t), Role: entity.UserRoleMaster},
		acme:    f.user(t, "Acme"),
		globex:  f.user(t, "Globex"),
	}
}

func (f *chatLogFixture) turn(t *testing.T, owner uuid.UUID, session, query string, at time.Time) {
	t.Helper()
	_, err := f.svc.Append(context.Background(), &dto.AppendChatLogRequest{
		SessionID:   session,
		OwnerUserID: owner,
		Query:       query,
		Answer:      "answer to " + query,
		Timestamp:   at,
	})
	require.NoError(t, err)
}

func (f *chatLogFixture) seed(t *testing.T) {
	base := f.clock.Now()
	f.turn(t, f.acme, "s-acme-1", "opening hours?", base)
	f.turn(t, f.acme, "s-acme-1", "and on sunday?", base.Add(2*time.Minute))
	f.turn(t, f.acme, "s-acme-2", "refund policy?", base.Add(5*time.Minute))
	f.turn(t, f.globex, "s-globex-1", "pricing?", base.Add(time.Minute))
}

func sessionIDs(page *dto.PaginatedResponse[dto.ChatSessionResponse]) []string {
	res := make([]string, len(page.Data))
	for i, s := range page.Data {
		res[i] = s.SessionID
	}
	return res
}

func TestChatLogService_TenantSeesOwnSessions(t *testing.T) {
	f := newChatLogFixture(t)
	f.seed(t)

	page, err := f.svc.ListSessions(context.Background(), tenant(f.acme), dto.ListSessionsQuery{UserID: f.globex.String()})
	require.NoError(t, err)

	assert.Equal(t, []string{"s-acme-2", "s-acme-1"}, sessionIDs(page), "the userId filter is ignored for tenants")
	assert.Equal(t, int64(2), page.Pagination.Total)

	first := page.Data[1]
	assert.Equal(t, int64(2), first.MessageCount)
	assert.Equal(t, "and on sunday?", first.Preview)
	assert.Equal(t, f.acme, first.UserID)
}

func TestChatLogService_MasterSeesAllTenants(t *testing.T) {
	f := newChatLogFixture(t)
	f.seed(t)
	ctx := context.Background()

	all, err := f.svc.ListSessions(ctx, f.master, dto.ListSessionsQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"s-acme-2", "s-acme-1", "s-globex-1"}, sessionIDs(all))

	narrowed, err := f.svc.ListSessions(ctx, f.master, dto.ListSessionsQuery{UserID: f.globex.String()})
	require.NoError(t, err)
	assert.Equal(t, []string{"s-globex-1"}, sessionIDs(narrowed))

	_, err = f.svc.ListSessions(ctx, f.master, dto.ListSessionsQuery{UserID: "not-an-id"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	paged, err := f.svc.ListSessions(ctx, f.master, dto.ListSessionsQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"s-globex-1"}, sessionIDs(paged))
	assert.Equal(t, 2, paged.Pagination.TotalPages)
}

func TestChatLogService_MessagesAreChronological(t *testing.T) {
	f := newChatLogFixture(t)
	f.seed(t)
	ctx := context.Background()

	msgs, err := f.svc.Messages(ctx, tenant(f.acme), "s-acme-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "opening hours?", msgs[0].Query)
	assert.Equal(t, "and on sunday?", msgs[1].Query)
	assert.True(t, msgs[0].Timestamp.Before(msgs[1].Timestamp))

	_, err = f.svc.Messages(ctx, tenant(f.globex), "s-acme-1")
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	masterView, err := f.svc.Messages(ctx, f.master, "s-acme-1")
	require.NoError(t, err)
	assert.Len(t, masterView, 2)

	_, err = f.svc.Messages(ctx, f.master, "missing")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestChatLogService_SessionOwnerIsFixed(t *testing.T) {
	f := newChatLogFixture(t)
	ctx := context.Background()

	f.turn(t, f.acme, "shared", "hello", f.clock.Now())

	_, err := f.svc.Append(ctx, &dto.AppendChatLogRequest{SessionID: "shared", OwnerUserID: f.globex, Query: "hijack"})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	_, err = f.svc.Append(ctx, &dto.AppendChatLogRequest{SessionID: " ", OwnerUserID: f.acme, Query: "x"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestChatLogService_ConcurrentFirstTurnsClaimOneOwner(t *testing.T) {
	f := newChatLogFixture(t)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		stored    = map[uuid.UUID]int{}
		conflicts int
	)
	for i := 0; i < 10; i++ {
		owner := f.acme
		if i%2 == 1 {
			owner = f.globex
		}
		wg.Add(1)
		go func(owner uuid.UUID) {
			defer wg.Done()
			_, err := f.svc.Append(ctx, &dto.AppendChatLogRequest{SessionID: "contested", OwnerUserID: owner, Query: "hi"})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.True(t, apperror.IsKind(err, apperror.KindConflict), "got %v", err)
				conflicts++
				return
			}
			stored[owner]++
		}(owner)
	}
	wg.Wait()

	require.Len(t, stored, 1, "exactly one tenant owns the session")
	assert.Equal(t, 5, conflicts)
	for _, n := range stored {
		assert.Equal(t, 5, n)
	}

	messages, err := f.svc.Messages(ctx, f.master, "contested")
	require.NoError(t, err)
	assert.Len(t, messages, 5)
}

func TestChatLogService_AppendRejectsOversizedSessionID(t *testing.T) {
	f := newChatLogFixture(t)
	ctx := context.Background()

	_, err := f.svc.Append(ctx, &dto.AppendChatLogRequest{
		SessionID:   strings.Repeat("s", 129),
		OwnerUserID: f.acme,
		Query:       "hello",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation), "got %v", err)

	_, err = f.svc.Append(ctx, &dto.AppendChatLogRequest{
		SessionID:   "s-1",
		OwnerUserID: f.acme,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation), "a turn without a query is rejected")

	sessions, err := f.svc.ListSessions(ctx, f.master, dto.ListSessionsQuery{})
	require.NoError(t, err)
	assert.Empty(t, sessions.Data)
}

func TestChatLogService_AppendDefaultsTimestamp(t *testing.T) {
	f := newChatLogFixture(t)

	res, err := f.svc.Append(context.Background(), &dto.AppendChatLogRequest{SessionID: "s", OwnerUserID: f.acme, Query: "q"})
	require.NoError(t, err)
	assert.True(t, res.Timestamp.Equal(f.clock.Now()))
}
