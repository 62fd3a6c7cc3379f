package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/dto"
	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/apperror"
	"github.com/filezingme/BibiChat-sub000/internal/websocket"
	"github.com/filezingme/BibiChat-sub000/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dmFixture struct {
	*fixture
	svc       *DirectMessageService
	publisher *recordingPublisher
	alice     uuid.UUID
	bob       uuid.UUID
	carol     uuid.UUID
}

func newDMFixture(t *testing.T) *dmFixture {
	f := newFixture(t)
	pub := &recordingPublisher{}
	return &dmFixture{
		fixture:   f,
		svc:       NewDirectMessageService(f.uow, f.emitter, f.directory, pub, nil, f.log).WithClock(f.clock.Now),
		publisher: pub,
		alice:     f.user(t, "Alice"),
		bob:       f.user(t, "Bob"),
		carol:     f.user(t, "Carol"),
	}
}

func (f *dmFixture) send(t *testing.T, from, to uuid.UUID, content string) *dto.DirectMessageResponse {
	t.Helper()
	res, err := f.svc.Send(context.Background(), from, &dto.SendDirectMessageRequest{ReceiverID: to, Content: content})
	require.NoError(t, err)
	return res
}

func TestDirectMessageService_SendDeliversToReceiverOnly(t *testing.T) {
	f := newDMFixture(t)

	msg := f.send(t, f.alice, f.bob, "hi")

	got := f.emitter.sentTo(f.bob, websocket.EventDirectMessage)
	require.Len(t, got, 1)
	evt := got[0].(websocket.DirectMessageEvent)
	assert.Equal(t, msg.ID, evt.ID)
	assert.Equal(t, "hi", evt.Content)
	assert.Equal(t, "text", evt.Type)
	assert.NotNil(t, evt.Reactions)
	assert.Empty(t, evt.Reactions)
	assert.False(t, evt.IsRead)

	assert.Empty(t, f.emitter.sentTo(f.alice, websocket.EventDirectMessage), "the sender gets no echo")
	assert.Equal(t, []string{events.TypeDirectMessageSent}, f.publisher.types())
	assert.Equal(t, entity.ConversationKeyOf(f.alice, f.bob), msg.ConversationKey)
}

func TestDirectMessageService_SendValidation(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.SendDirectMessageRequest
		kind apperror.Kind
	}{
		{"blank content", dto.SendDirectMessageRequest{ReceiverID: f.bob, Content: "   "}, apperror.KindValidation},
		{"bad type", dto.SendDirectMessageRequest{ReceiverID: f.bob, Content: "x", Type: "video"}, apperror.KindValidation},
		{"content too long", dto.SendDirectMessageRequest{ReceiverID: f.bob, Content: strings.Repeat("ä", 4001)}, apperror.KindValidation},
		{"missing receiver", dto.SendDirectMessageRequest{Content: "x"}, apperror.KindValidation},
		{"self send", dto.SendDirectMessageRequest{ReceiverID: f.alice, Content: "x"}, apperror.KindValidation},
		{"unknown receiver", dto.SendDirectMessageRequest{ReceiverID: uuid.New(), Content: "x"}, apperror.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Send(ctx, f.alice, &tt.req)
			require.Error(t, err)
			assert.True(t, apperror.IsKind(err, tt.kind), "got %v", err)
		})
	}
	assert.Zero(t, f.emitter.count())
}

func TestDirectMessageService_ReplyMustStayInConversation(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	other := f.send(t, f.alice, f.carol, "hello carol")
	first := f.send(t, f.bob, f.alice, "hello alice")
	before := f.emitter.count()

	_, err := f.svc.Send(ctx, f.alice, &dto.SendDirectMessageRequest{
		ReceiverID: f.bob,
		Content:    "replying",
		ReplyToID:  &other.ID,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidReference))
	assert.Equal(t, before, f.emitter.count(), "nothing is emitted on a failed send")

	history, err := f.svc.History(ctx, f.alice, f.bob, dto.PageQuery{})
	require.NoError(t, err)
	assert.Len(t, history.Data, 1, "no record is created on a failed send")

	missing := "01ARZ3NDEKTSV4RRFFQ69G5FAV"
	_, err = f.svc.Send(ctx, f.alice, &dto.SendDirectMessageRequest{ReceiverID: f.bob, Content: "x", ReplyToID: &missing})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidReference))

	reply, err := f.svc.Send(ctx, f.alice, &dto.SendDirectMessageRequest{
		ReceiverID: f.bob,
		Content:    "replying",
		ReplyToID:  &first.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ReplyToID)
	assert.Equal(t, first.ID, *reply.ReplyToID)
}

func TestDirectMessageService_ReactToggles(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	msg := f.send(t, f.alice, f.bob, "hi")

	added, err := f.svc.React(ctx, f.bob, msg.ID, "❤️")
	require.NoError(t, err)
	require.Len(t, added.Reactions, 1)
	assert.Equal(t, f.bob, added.Reactions[0].UserID)

	updates := f.emitter.sentTo(f.alice, websocket.EventDirectMessageUpdated)
	require.Len(t, updates, 1, "the other participant is told about the reaction")

	removed, err := f.svc.React(ctx, f.bob, msg.ID, "❤️")
	require.NoError(t, err)
	assert.Empty(t, removed.Reactions)
}

func TestDirectMessageService_ReactAllowsSeveralEmojiPerUser(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	msg := f.send(t, f.alice, f.bob, "hi")

	_, err := f.svc.React(ctx, f.bob, msg.ID, "❤️")
	require.NoError(t, err)
	_, err = f.svc.React(ctx, f.bob, msg.ID, "👍")
	require.NoError(t, err)
	res, err := f.svc.React(ctx, f.alice, msg.ID, "❤️")
	require.NoError(t, err)

	assert.Len(t, res.Reactions, 3)
}

func TestDirectMessageService_ReactChecks(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	msg := f.send(t, f.alice, f.bob, "hi")

	_, err := f.svc.React(ctx, f.carol, msg.ID, "❤️")
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	_, err = f.svc.React(ctx, f.bob, "01ARZ3NDEKTSV4RRFFQ69G5FAV", "❤️")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	_, err = f.svc.React(ctx, f.bob, msg.ID, " ")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = f.svc.React(ctx, f.bob, msg.ID, strings.Repeat("😀", 33))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation), "got %v", err)

	res, err := f.svc.React(ctx, f.bob, msg.ID, strings.Repeat("😀", 32))
	require.NoError(t, err)
	assert.Len(t, res.Reactions, 1)
}

func TestDirectMessageService_HistoryOrderIsSameForBothSides(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	var sent []string
	for i := 0; i < 5; i++ {
		from, to := f.alice, f.bob
		if i%2 == 1 {
			from, to = f.bob, f.alice
		}
		sent = append(sent, f.send(t, from, to, fmt.Sprintf("m%d", i)).ID)
	}

	ids := func(page *dto.PaginatedResponse[dto.DirectMessageResponse]) []string {
		res := make([]string, len(page.Data))
		for i, m := range page.Data {
			res[i] = m.ID
		}
		return res
	}

	fromAlice, err := f.svc.History(ctx, f.alice, f.bob, dto.PageQuery{})
	require.NoError(t, err)
	fromBob, err := f.svc.History(ctx, f.bob, f.alice, dto.PageQuery{})
	require.NoError(t, err)

	assert.Equal(t, sent, ids(fromAlice))
	assert.Equal(t, ids(fromAlice), ids(fromBob))

	newest, err := f.svc.History(ctx, f.alice, f.bob, dto.PageQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, sent[3:], ids(newest), "page 1 holds the newest messages in ascending order")
	assert.Equal(t, int64(5), newest.Pagination.Total)

	oldest, err := f.svc.History(ctx, f.alice, f.bob, dto.PageQuery{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, sent[:1], ids(oldest))
}

func TestDirectMessageService_ClockSkewKeepsOrder(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	first := f.send(t, f.alice, f.bob, "first")
	f.clock.Advance(-time.Minute)
	second := f.send(t, f.bob, f.alice, "second")

	assert.True(t, second.CreatedAt.After(first.CreatedAt))

	history, err := f.svc.History(ctx, f.alice, f.bob, dto.PageQuery{})
	require.NoError(t, err)
	require.Len(t, history.Data, 2)
	assert.Equal(t, first.ID, history.Data[0].ID)
	assert.Equal(t, second.ID, history.Data[1].ID)
}

func TestDirectMessageService_ClockSkewAcrossConversationsKeepsOrder(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	// Another conversation draws an id at a later millisecond before the clock steps back.
	var sent []string
	for i := 0; i < 30; i++ {
		sent = append(sent, f.send(t, f.alice, f.bob, fmt.Sprintf("a%d", i)).ID)
		f.clock.Advance(time.Second)
		f.send(t, f.carol, f.bob, fmt.Sprintf("c%d", i))
		f.clock.Advance(-time.Minute)
		sent = append(sent, f.send(t, f.bob, f.alice, fmt.Sprintf("b%d", i)).ID)
		f.clock.Advance(2 * time.Minute)
	}

	history, err := f.svc.History(ctx, f.alice, f.bob, dto.PageQuery{Limit: dto.MaxPageLimit})
	require.NoError(t, err)
	require.Len(t, history.Data, len(sent))

	live := f.emitter.sentTo(f.alice, websocket.EventDirectMessage)
	require.Len(t, live, 30)
	for i, m := range history.Data {
		assert.Equal(t, sent[i], m.ID, "position %d", i)
		if i > 0 {
			assert.True(t, m.CreatedAt.After(history.Data[i-1].CreatedAt), "position %d", i)
			assert.Greater(t, m.ID, history.Data[i-1].ID, "position %d", i)
		}
	}
}

func TestDirectMessageService_ConcurrentSendsKeepLiveOrder(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Send(ctx, f.alice, &dto.SendDirectMessageRequest{ReceiverID: f.bob, Content: fmt.Sprintf("m%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	live := f.emitter.sentTo(f.bob, websocket.EventDirectMessage)
	require.Len(t, live, 10)

	history, err := f.svc.History(ctx, f.bob, f.alice, dto.PageQuery{})
	require.NoError(t, err)
	require.Len(t, history.Data, 10)
	for i := range live {
		assert.Equal(t, history.Data[i].ID, live[i].(websocket.DirectMessageEvent).ID)
	}
}

func TestDirectMessageService_UnreadResetsOnHistory(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	f.send(t, f.alice, f.bob, "one")
	f.send(t, f.alice, f.bob, "two")
	f.send(t, f.carol, f.bob, "three")

	unread, err := f.svc.UnreadCount(ctx, f.bob)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	senderUnread, err := f.svc.UnreadCount(ctx, f.alice)
	require.NoError(t, err)
	assert.Zero(t, senderUnread)

	history, err := f.svc.History(ctx, f.bob, f.alice, dto.PageQuery{})
	require.NoError(t, err)
	for _, m := range history.Data {
		assert.True(t, m.IsRead)
	}

	unread, err = f.svc.UnreadCount(ctx, f.bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread, "only the conversation that was fetched is cleared")
}

func TestDirectMessageService_OlderPageLeavesNewerUnread(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		f.send(t, f.alice, f.bob, fmt.Sprintf("m%d", i))
	}

	older, err := f.svc.History(ctx, f.bob, f.alice, dto.PageQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, older.Data, 2)
	assert.Equal(t, "m1", older.Data[0].Content)
	assert.Equal(t, "m2", older.Data[1].Content)
	for _, m := range older.Data {
		assert.True(t, m.IsRead)
	}

	unread, err := f.svc.UnreadCount(ctx, f.bob)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread, "m3 and m4 were never returned")

	newest, err := f.svc.History(ctx, f.bob, f.alice, dto.PageQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "m3", newest.Data[0].Content)

	unread, err = f.svc.UnreadCount(ctx, f.bob)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestDirectMessageService_HistoryMarksOnlyViewerMessages(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	f.send(t, f.alice, f.bob, "to bob")
	f.send(t, f.bob, f.alice, "to alice")

	_, err := f.svc.History(ctx, f.bob, f.alice, dto.PageQuery{})
	require.NoError(t, err)

	unread, err := f.svc.UnreadCount(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread, "reading as bob must not mark alice's inbox")
}

func TestDirectMessageService_ConversationsByLatestActivity(t *testing.T) {
	f := newDMFixture(t)
	ctx := context.Background()

	f.send(t, f.bob, f.alice, "from bob")
	f.clock.Advance(time.Second)
	f.send(t, f.carol, f.alice, "from carol")
	f.clock.Advance(time.Second)
	f.send(t, f.carol, f.alice, "again from carol")

	list, err := f.svc.Conversations(ctx, f.alice, dto.PageQuery{})
	require.NoError(t, err)
	require.Len(t, list.Data, 2)

	assert.Equal(t, f.carol, list.Data[0].PeerID)
	require.NotNil(t, list.Data[0].Peer)
	assert.Equal(t, "Carol", list.Data[0].Peer.FullName)
	require.NotNil(t, list.Data[0].LastMessage)
	assert.Equal(t, "again from carol", list.Data[0].LastMessage.Content)
	assert.Equal(t, int64(2), list.Data[0].UnreadCount)

	assert.Equal(t, f.bob, list.Data[1].PeerID)
	assert.Equal(t, int64(1), list.Data[1].UnreadCount)

	f.clock.Advance(time.Second)
	f.send(t, f.alice, f.bob, "back to bob")

	list, err = f.svc.Conversations(ctx, f.alice, dto.PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, f.bob, list.Data[0].PeerID)
}
