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

	"github.com/google/uuid"
)

type IChatLogService interface {
	Append(ctx context.Context, req *dto.AppendChatLogRequest) (*dto.ChatLogResponse, error)
	ListSessions(ctx context.Context, viewer entity.Viewer, q dto.ListSessionsQuery) (*dto.PaginatedResponse[dto.ChatSessionResponse], error)
	Messages(ctx context.Context, viewer entity.Viewer, sessionID string) ([]dto.ChatLogResponse, error)
}

type ChatLogService struct {
	uowFactory unitofwork.RepositoryFactory
	mapper     *mapper.ChatLogMapper
	locks      *keyedMutex
	logger     logger.ILogger
	now        func() time.Time
}

func NewChatLogService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) *ChatLogService {
	return &ChatLogService{
		uowFactory: uowFactory,
		mapper:     mapper.NewChatLogMapper(),
		locks:      newKeyedMutex(),
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *ChatLogService) WithClock(now func() time.Time) *ChatLogService {
	s.now = now
	return s
}

// Append stores one bot turn. The session owner is fixed by its first entry.
func (s *ChatLogService) Append(ctx context.Context, req *dto.AppendChatLogRequest) (*dto.ChatLogResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return nil, apperror.Validation("sessionId is required")
	}
	if req.OwnerUserID == uuid.Nil {
		return nil, apperror.Validation("userId is required")
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	entry := &entity.ChatLogEntry{
		SessionID:   sessionID,
		OwnerUserID: req.OwnerUserID,
		Query:       req.Query,
		Answer:      req.Answer,
		IsSolved:    req.IsSolved,
		Timestamp:   ts.UTC(),
	}

	// Owner check and insert run under one session lock so two first turns cannot both claim it.
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Persistence("failed to begin transaction", err)
	}
	defer uow.Rollback()

	repo := uow.ChatLogRepository()
	owner, exists, err := repo.SessionOwner(ctx, sessionID)
	if err != nil {
		return nil, apperror.Persistence("failed to resolve session owner", err)
	}
	if exists && owner != req.OwnerUserID {
		return nil, apperror.Conflict("session belongs to another tenant")
	}
	if err := repo.Create(ctx, entry); err != nil {
		return nil, apperror.Persistence("failed to append chat log", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Persistence("failed to commit chat log", err)
	}
	metrics.ChatLogsAppended.Inc()

	res := s.mapper.ToResponse(entry)
	return &res, nil
}

func (s *ChatLogService) scopeFor(viewer entity.Viewer, filterUserID string) (entity.OwnerScope, error) {
	if !viewer.IsMaster() {
		return entity.TenantScope(viewer.UserID), nil
	}
	if filterUserID == "" {
		return entity.AllTenants(), nil
	}
	id, err := uuid.Parse(filterUserID)
	if err != nil {
		return entity.OwnerScope{}, apperror.Validation("userId must be a valid id")
	}
	return entity.TenantScope(id), nil
}

// ListSessions pages sessions by most recent activity. Tenants always see their own sessions;
// the master sees every tenant's unless userId narrows it.
func (s *ChatLogService) ListSessions(ctx context.Context, viewer entity.Viewer, q dto.ListSessionsQuery) (*dto.PaginatedResponse[dto.ChatSessionResponse], error) {
	scope, err := s.scopeFor(viewer, q.UserID)
	if err != nil {
		return nil, err
	}
	page := q.PageQuery()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, total, err := uow.ChatLogRepository().ListSessions(ctx, scope, page.Limit, page.Offset())
	if err != nil {
		return nil, apperror.Persistence("failed to list sessions", err)
	}

	data := make([]dto.ChatSessionResponse, len(sessions))
	for i, session := range sessions {
		data[i] = s.mapper.SessionToResponse(session)
	}
	res := dto.NewPaginatedResponse(data, page, total)
	return &res, nil
}

// Messages returns the full log of one session in chronological order.
func (s *ChatLogService) Messages(ctx context.Context, viewer entity.Viewer, sessionID string) ([]dto.ChatLogResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.ChatLogRepository()

	owner, exists, err := repo.SessionOwner(ctx, sessionID)
	if err != nil {
		return nil, apperror.Persistence("failed to resolve session owner", err)
	}
	if !exists {
		return nil, apperror.NotFound("session not found")
	}
	if !viewer.IsMaster() && owner != viewer.UserID {
		return nil, apperror.Forbidden("session belongs to another tenant")
	}

	entries, err := repo.FindAll(ctx,
		specification.BySession{SessionID: sessionID},
		specification.OrderBy{Field: "occurred_at"},
		specification.OrderBy{Field: "id"},
	)
	if err != nil {
		return nil, apperror.Persistence("failed to load session messages", err)
	}

	res := make([]dto.ChatLogResponse, len(entries))
	for i, e := range entries {
		res[i] = s.mapper.ToResponse(e)
	}
	return res, nil
}
