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

// sweepBatchSize bounds how many due notifications one sweep dispatches.
const sweepBatchSize = 100

type INotificationService interface {
	Create(ctx context.Context, author entity.Viewer, req *dto.CreateNotificationRequest) (*dto.SentNotificationResponse, error)
	MarkRead(ctx context.Context, viewer entity.Viewer, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, viewer entity.Viewer) (int64, error)
	ListFor(ctx context.Context, viewer entity.Viewer, q dto.PageQuery) (*dto.PaginatedResponse[dto.NotificationResponse], error)
	UnreadCount(ctx context.Context, viewer entity.Viewer) (int64, error)
	ListSent(ctx context.Context, q dto.PageQuery) (*dto.PaginatedResponse[dto.SentNotificationResponse], error)
	Cancel(ctx context.Context, id uuid.UUID) error
	SweepDue(ctx context.Context) (int, error)
}

type NotificationService struct {
	uowFactory unitofwork.RepositoryFactory
	emitter    Emitter
	directory  UserDirectory
	publisher  events.Publisher
	offline    IOfflineNotifier
	mapper     *mapper.NotificationMapper
	logger     logger.ILogger
	now        func() time.Time
}

func NewNotificationService(
	uowFactory unitofwork.RepositoryFactory,
	emitter Emitter,
	directory UserDirectory,
	publisher events.Publisher,
	offline IOfflineNotifier,
	log logger.ILogger,
) *NotificationService {
	if offline == nil {
		offline = noopOfflineNotifier{}
	}
	return &NotificationService{
		uowFactory: uowFactory,
		emitter:    emitter,
		directory:  directory,
		publisher:  publisher,
		offline:    offline,
		mapper:     mapper.NewNotificationMapper(),
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source used for scheduling decisions.
func (s *NotificationService) WithClock(now func() time.Time) *NotificationService {
	s.now = now
	return s
}

func visibleTo(viewer entity.Viewer) specification.Specification {
	return specification.NotificationVisibleTo{UserID: viewer.UserID, IncludeBroadcast: !viewer.IsMaster()}
}

func (s *NotificationService) Create(ctx context.Context, author entity.Viewer, req *dto.CreateNotificationRequest) (*dto.SentNotificationResponse, error) {
	// Requests from the event bus skip the HTTP binder, so the column limits are checked here too.
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	scope, ok := entity.ParseTargetScope(req.TargetScope)
	if !ok {
		return nil, apperror.Validation("targetScope must be \"all\" or a user id")
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Body) == "" {
		return nil, apperror.Validation("title and body are required")
	}
	if targetID, direct := scope.UserID(); direct {
		target, err := s.directory.Get(ctx, targetID)
		if err != nil {
			return nil, apperror.Persistence("failed to resolve target user", err)
		}
		if target == nil {
			return nil, apperror.NotFound("target user not found")
		}
	}

	now := s.now()
	scheduledAt := now
	if req.ScheduledAt != nil {
		scheduledAt = req.ScheduledAt.UTC()
	}
	var createdBy *uuid.UUID
	if author.UserID != uuid.Nil {
		id := author.UserID
		createdBy = &id
	}

	n := &entity.Notification{
		ID:              uuid.New(),
		Scope:           scope,
		Title:           req.Title,
		Body:            req.Body,
		Icon:            req.Icon,
		Color:           req.Color,
		BackgroundColor: req.BackgroundColor,
		Metadata:        req.Metadata,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		ScheduledAt:     scheduledAt,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.NotificationRepository().Create(ctx, n); err != nil {
		return nil, apperror.Persistence("failed to save notification", err)
	}

	if n.IsDue(now) {
		if _, err := s.dispatch(ctx, n); err != nil {
			return nil, err
		}
	} else {
		s.logger.Info("NotificationService", "Notification scheduled", map[string]interface{}{
			"notification_id": n.ID,
			"scheduled_at":    n.ScheduledAt,
		})
	}

	res := s.mapper.ToSentResponse(&entity.SentNotification{Notification: *n})
	return &res, nil
}

// dispatch claims the dispatched-flag and fans out. Losing the claim is not an error.
func (s *NotificationService) dispatch(ctx context.Context, n *entity.Notification) (bool, error) {
	now := s.now()
	uow := s.uowFactory.NewUnitOfWork(ctx)
	claimed, err := uow.NotificationRepository().ClaimDispatch(ctx, n.ID, now)
	if err != nil {
		return false, apperror.Persistence("failed to mark notification dispatched", err)
	}
	if !claimed {
		return false, nil
	}
	n.DispatchedAt = &now

	recipients := s.recipients(n)
	event := websocket.NotificationEvent{NotificationResponse: s.mapper.ToResponse(n, false)}
	for _, userID := range recipients {
		s.emitter.EmitToUser(userID, event)
	}

	scopeLabel := "user"
	if n.Scope.IsBroadcast() {
		scopeLabel = "all"
	}
	metrics.NotificationsDispatched.WithLabelValues(scopeLabel).Inc()
	s.logger.Info("NotificationService", "Notification dispatched", map[string]interface{}{
		"notification_id": n.ID,
		"scope":           scopeLabel,
		"recipients":      len(recipients),
	})

	if userID, direct := n.Scope.UserID(); direct {
		s.offline.NotificationDelivered(userID, n)
	}

	publishBestEffort(ctx, s.publisher, s.logger, events.New(events.TypeNotificationDispatched, map[string]interface{}{
		"notification_id": n.ID.String(),
		"target_scope":    n.Scope.String(),
		"recipients":      len(recipients),
	}))
	return true, nil
}

// recipients resolves the scope to concrete users. A broadcast reaches every connected
// non-master user; anyone offline picks it up through listFor.
func (s *NotificationService) recipients(n *entity.Notification) []uuid.UUID {
	if userID, direct := n.Scope.UserID(); direct {
		return []uuid.UUID{userID}
	}

	connected := s.emitter.ConnectedUsers()
	res := make([]uuid.UUID, 0, len(connected))
	for _, c := range connected {
		if n.Scope.Includes(c.UserID, entity.UserRole(c.Role)) {
			res = append(res, c.UserID)
		}
	}
	return res
}

func (s *NotificationService) MarkRead(ctx context.Context, viewer entity.Viewer, notificationID uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	n, err := uow.NotificationRepository().FindOne(ctx,
		specification.ByID{ID: notificationID},
		visibleTo(viewer),
		specification.Dispatched{},
	)
	if err != nil {
		return apperror.Persistence("failed to load notification", err)
	}
	if n == nil {
		return apperror.NotFound("notification not found")
	}

	if err := uow.NotificationRepository().MarkRead(ctx, notificationID, viewer.UserID, s.now()); err != nil {
		return apperror.Persistence("failed to mark notification read", err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, viewer entity.Viewer) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	unread, err := uow.NotificationRepository().FindAll(ctx,
		visibleTo(viewer),
		specification.Dispatched{},
		specification.UnreadBy{UserID: viewer.UserID},
	)
	if err != nil {
		return 0, apperror.Persistence("failed to load unread notifications", err)
	}
	if len(unread) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, len(unread))
	for i, n := range unread {
		ids[i] = n.ID
	}
	if err := uow.NotificationRepository().MarkManyRead(ctx, ids, viewer.UserID, s.now()); err != nil {
		return 0, apperror.Persistence("failed to mark notifications read", err)
	}
	return int64(len(ids)), nil
}

func (s *NotificationService) ListFor(ctx context.Context, viewer entity.Viewer, q dto.PageQuery) (*dto.PaginatedResponse[dto.NotificationResponse], error) {
	q = q.Normalize()
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.NotificationRepository()

	total, err := repo.Count(ctx, visibleTo(viewer), specification.Dispatched{})
	if err != nil {
		return nil, apperror.Persistence("failed to count notifications", err)
	}

	items, err := repo.ListForViewer(ctx, viewer.UserID,
		visibleTo(viewer),
		specification.Dispatched{},
		specification.OrderBy{Field: "notifications.created_at", Desc: true},
		specification.OrderBy{Field: "notifications.id", Desc: true},
		specification.Pagination{Limit: q.Limit, Offset: q.Offset()},
	)
	if err != nil {
		return nil, apperror.Persistence("failed to list notifications", err)
	}

	data := make([]dto.NotificationResponse, len(items))
	for i, item := range items {
		data[i] = s.mapper.ToResponse(&item.Notification, item.IsRead)
	}
	res := dto.NewPaginatedResponse(data, q, total)
	return &res, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, viewer entity.Viewer) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.NotificationRepository().Count(ctx,
		visibleTo(viewer),
		specification.Dispatched{},
		specification.UnreadBy{UserID: viewer.UserID},
	)
	if err != nil {
		return 0, apperror.Persistence("failed to count unread notifications", err)
	}
	return count, nil
}

func (s *NotificationService) ListSent(ctx context.Context, q dto.PageQuery) (*dto.PaginatedResponse[dto.SentNotificationResponse], error) {
	q = q.Normalize()
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.NotificationRepository()

	total, err := repo.Count(ctx)
	if err != nil {
		return nil, apperror.Persistence("failed to count notifications", err)
	}

	items, err := repo.ListSent(ctx,
		specification.OrderBy{Field: "notifications.created_at", Desc: true},
		specification.OrderBy{Field: "notifications.id", Desc: true},
		specification.Pagination{Limit: q.Limit, Offset: q.Offset()},
	)
	if err != nil {
		return nil, apperror.Persistence("failed to list notifications", err)
	}

	data := make([]dto.SentNotificationResponse, len(items))
	for i, item := range items {
		data[i] = s.mapper.ToSentResponse(item)
	}
	res := dto.NewPaginatedResponse(data, q, total)
	return &res, nil
}

// Cancel deletes a scheduled notification before it goes out.
func (s *NotificationService) Cancel(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.NotificationRepository()

	deleted, err := repo.DeletePending(ctx, id)
	if err != nil {
		return apperror.Persistence("failed to cancel notification", err)
	}
	if deleted {
		s.logger.Info("NotificationService", "Scheduled notification cancelled", map[string]interface{}{"notification_id": id})
		return nil
	}

	existing, err := repo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return apperror.Persistence("failed to load notification", err)
	}
	if existing == nil {
		return apperror.NotFound("notification not found")
	}
	return apperror.Conflict("notification already dispatched")
}

// SweepDue dispatches every undelivered notification whose time has come.
// Overlapping sweeps are safe: each notification is claimed atomically before fan-out.
func (s *NotificationService) SweepDue(ctx context.Context) (int, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	due, err := uow.NotificationRepository().FindAll(ctx,
		specification.DueAt{Now: s.now()},
		specification.OrderBy{Field: "notifications.scheduled_at"},
		specification.Pagination{Limit: sweepBatchSize},
	)
	if err != nil {
		return 0, apperror.Persistence("failed to load due notifications", err)
	}

	dispatched := 0
	for _, n := range due {
		if ctx.Err() != nil {
			return dispatched, ctx.Err()
		}
		ok, err := s.dispatch(ctx, n)
		if err != nil {
			return dispatched, err
		}
		if ok {
			dispatched++
		}
	}
	return dispatched, nil
}
