package service

import (
	"context"
	"strings"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/dto"
	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/mapper"
	"github.com/filezingme/BibiChat-sub000/internal/metrics"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/apperror"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/logger"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/serverutils"
	"github.com/filezingme/BibiChat-sub000/internal/repository/specification"
	"github.com/filezingme/BibiChat-sub000/internal/repository/unitofwork"
	"github.com/filezingme/BibiChat-sub000/internal/websocket"
	"github.com/filezingme/BibiChat-sub000/pkg/events"

	"github.com/google/uuid"
)

type IDirectMessageService interface {
	Send(ctx context.Context, senderID uuid.UUID, req *dto.SendDirectMessageRequest) (*dto.DirectMessageResponse, error)
	React(ctx context.Context, userID uuid.UUID, messageID, emoji string) (*dto.DirectMessageResponse, error)
	History(ctx context.Context, viewerID, peerID uuid.UUID, q dto.PageQuery) (*dto.PaginatedResponse[dto.DirectMessageResponse], error)
	Conversations(ctx context.Context, userID uuid.UUID, q dto.PageQuery) (*dto.PaginatedResponse[dto.ConversationResponse], error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

// DirectMessageService owns conversation threading. Writes to one conversation are
// serialized so that the live-emitted order always matches the persisted order.
type DirectMessageService struct {
	uowFactory unitofwork.RepositoryFactory
	emitter    Emitter
	directory  UserDirectory
	publisher  events.Publisher
	offline    IOfflineNotifier
	mapper     *mapper.DirectMessageMapper
	userMapper *mapper.UserMapper
	locks      *keyedMutex
	ids        *messageIDs
	logger     logger.ILogger
	now        func() time.Time
}

func NewDirectMessageService(
	uowFactory unitofwork.RepositoryFactory,
	emitter Emitter,
	directory UserDirectory,
	publisher events.Publisher,
	offline IOfflineNotifier,
	log logger.ILogger,
) *DirectMessageService {
	if offline == nil {
		offline = noopOfflineNotifier{}
	}
	return &DirectMessageService{
		uowFactory: uowFactory,
		emitter:    emitter,
		directory:  directory,
		publisher:  publisher,
		offline:    offline,
		mapper:     mapper.NewDirectMessageMapper(),
		userMapper: mapper.NewUserMapper(),
		locks:      newKeyedMutex(),
		ids:        newMessageIDs(),
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *DirectMessageService) WithClock(now func() time.Time) *DirectMessageService {
	s.now = now
	return s
}

func (s *DirectMessageService) Send(ctx context.Context, senderID uuid.UUID, req *dto.SendDirectMessageRequest) (*dto.DirectMessageResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	msgType := entity.MessageType(req.Type)
	if msgType == "" {
		msgType = entity.MessageTypeText
	}
	if !msgType.Valid() {
		return nil, apperror.Validation("type must be text, sticker or emoji")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperror.Validation("content is required")
	}
	if req.ReceiverID == senderID {
		return nil, apperror.Validation("cannot send a message to yourself")
	}

	receiver, err := s.directory.Get(ctx, req.ReceiverID)
	if err != nil {
		return nil, apperror.Persistence("failed to resolve receiver", err)
	}
	if receiver == nil {
		return nil, apperror.NotFound("receiver not found")
	}

	key := entity.ConversationKeyOf(senderID, req.ReceiverID)
	unlock := s.locks.Lock(key)
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.DirectMessageRepository()

	if req.ReplyToID != nil && *req.ReplyToID != "" {
		parent, err := repo.FindOne(ctx, specification.ByMessageID{ID: *req.ReplyToID})
		if err != nil {
			return nil, apperror.Persistence("failed to load replied message", err)
		}
		if parent == nil || parent.ConversationKey != key {
			return nil, apperror.InvalidReference("replyToId does not reference a message in this conversation")
		}
	} else {
		req.ReplyToID = nil
	}

	// Every message lands on a later millisecond than the previous one in its conversation,
	// so the ULID time component alone orders the conversation even if the clock steps back.
	createdAt := s.now()
	latest, err := repo.LatestCreatedAt(ctx, key)
	if err != nil {
		return nil, apperror.Persistence("failed to read conversation state", err)
	}
	if latest != nil {
		floor := latest.Truncate(time.Millisecond).Add(time.Millisecond)
		if createdAt.Before(floor) {
			createdAt = floor
		}
	}
	id, err := s.ids.New(createdAt)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindPersistence, "failed to allocate message id", err)
	}

	msg := &entity.DirectMessage{
		ID:              id,
		ConversationKey: key,
		SenderID:        senderID,
		ReceiverID:      req.ReceiverID,
		Content:         req.Content,
		Type:            msgType,
		ReplyToID:       req.ReplyToID,
		Reactions:       []entity.Reaction{},
		CreatedAt:       createdAt,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Persistence("failed to begin transaction", err)
	}
	defer uow.Rollback()

	if err := uow.DirectMessageRepository().Create(ctx, msg); err != nil {
		return nil, apperror.Persistence("failed to save message", err)
	}
	if err := uow.DirectMessageRepository().TouchConversation(ctx, msg); err != nil {
		return nil, apperror.Persistence("failed to update conversation", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Persistence("failed to commit message", err)
	}

	res := s.mapper.ToResponse(msg)
	s.emitter.EmitToUser(msg.ReceiverID, websocket.DirectMessageEvent{DirectMessageResponse: res})
	metrics.DMsSent.Inc()

	s.offline.DirectMessageDelivered(msg)
	publishBestEffort(ctx, s.publisher, s.logger, events.New(events.TypeDirectMessageSent, map[string]interface{}{
		"message_id":       msg.ID,
		"conversation_key": msg.ConversationKey,
		"sender_id":        msg.SenderID.String(),
		"receiver_id":      msg.ReceiverID.String(),
	}))
	return &res, nil
}

// React toggles one emoji of userID on a message: a second identical call removes it.
func (s *DirectMessageService) React(ctx context.Context, userID uuid.UUID, messageID, emoji string) (*dto.DirectMessageResponse, error) {
	emoji = strings.TrimSpace(emoji)
	if err := serverutils.ValidateRequest(&dto.ReactRequest{Emoji: emoji}); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	msg, err := uow.DirectMessageRepository().FindOne(ctx, specification.ByMessageID{ID: messageID})
	if err != nil {
		return nil, apperror.Persistence("failed to load message", err)
	}
	if msg == nil {
		return nil, apperror.NotFound("message not found")
	}
	if !msg.Participant(userID) {
		return nil, apperror.Forbidden("not a participant of this conversation")
	}

	unlock := s.locks.Lock(msg.ConversationKey)
	defer unlock()

	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Persistence("failed to begin transaction", err)
	}
	defer uow.Rollback()

	repo := uow.DirectMessageRepository()
	removed, err := repo.RemoveReaction(ctx, messageID, userID, emoji)
	if err != nil {
		return nil, apperror.Persistence("failed to update reaction", err)
	}
	if !removed {
		reaction := entity.Reaction{UserID: userID, Emoji: emoji, CreatedAt: s.now()}
		if err := repo.AddReaction(ctx, messageID, reaction); err != nil {
			return nil, apperror.Persistence("failed to update reaction", err)
		}
	}
	updated, err := repo.FindOne(ctx, specification.ByMessageID{ID: messageID})
	if err != nil || updated == nil {
		return nil, apperror.Persistence("failed to reload message", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Persistence("failed to commit reaction", err)
	}

	res := s.mapper.ToResponse(updated)
	s.emitter.EmitToUser(updated.Peer(userID), websocket.DirectMessageUpdatedEvent{DirectMessageResponse: res})
	return &res, nil
}

// History returns one page of the conversation, oldest first within the page.
// Page 1 is the newest page. Only the messages on the returned page are marked read for the viewer.
func (s *DirectMessageService) History(ctx context.Context, viewerID, peerID uuid.UUID, q dto.PageQuery) (*dto.PaginatedResponse[dto.DirectMessageResponse], error) {
	q = q.Normalize()
	key := entity.ConversationKeyOf(viewerID, peerID)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.DirectMessageRepository()

	total, err := repo.Count(ctx, specification.ByConversation{Key: key})
	if err != nil {
		return nil, apperror.Persistence("failed to count messages", err)
	}

	messages, err := repo.FindAll(ctx,
		specification.ByConversation{Key: key},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "id", Desc: true},
		specification.Pagination{Limit: q.Limit, Offset: q.Offset()},
	)
	if err != nil {
		return nil, apperror.Persistence("failed to load messages", err)
	}

	now := s.now()
	unseen := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.ReceiverID == viewerID && m.ReadAt == nil {
			unseen = append(unseen, m.ID)
		}
	}
	if _, err := repo.MarkMessagesRead(ctx, unseen, viewerID, now); err != nil {
		return nil, apperror.Persistence("failed to mark messages read", err)
	}

	data := make([]dto.DirectMessageResponse, len(messages))
	for i, m := range messages {
		if m.ReceiverID == viewerID && m.ReadAt == nil {
			m.ReadAt = &now
		}
		data[len(messages)-1-i] = s.mapper.ToResponse(m)
	}
	res := dto.NewPaginatedResponse(data, q, total)
	return &res, nil
}

// Conversations lists the user's conversations, most recently active first.
func (s *DirectMessageService) Conversations(ctx context.Context, userID uuid.UUID, q dto.PageQuery) (*dto.PaginatedResponse[dto.ConversationResponse], error) {
	q = q.Normalize()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversations, total, err := uow.DirectMessageRepository().ListConversations(ctx, userID, q.Limit, q.Offset())
	if err != nil {
		return nil, apperror.Persistence("failed to list conversations", err)
	}

	peerIDs := make([]uuid.UUID, len(conversations))
	for i, c := range conversations {
		peerIDs[i] = c.PeerID
	}
	peers, err := s.directory.GetMany(ctx, peerIDs)
	if err != nil {
		return nil, apperror.Persistence("failed to resolve conversation peers", err)
	}

	data := make([]dto.ConversationResponse, len(conversations))
	for i, c := range conversations {
		item := dto.ConversationResponse{
			ConversationKey: c.ConversationKey,
			PeerID:          c.PeerID,
			Peer:            s.userMapper.ToSummary(peers[c.PeerID]),
			LastActivityAt:  c.LastActivityAt,
			UnreadCount:     c.UnreadCount,
		}
		if c.LastMessage != nil {
			last := s.mapper.ToResponse(c.LastMessage)
			item.LastMessage = &last
		}
		data[i] = item
	}
	res := dto.NewPaginatedResponse(data, q, total)
	return &res, nil
}

// UnreadCount is the number of received messages not yet fetched through History.
func (s *DirectMessageService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.DirectMessageRepository().Count(ctx, specification.UnreadFor{UserID: userID})
	if err != nil {
		return 0, apperror.Persistence("failed to count unread messages", err)
	}
	return count, nil
}
