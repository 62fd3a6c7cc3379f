package service

import (
	"context"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/dto"
	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/apperror"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/logger"
	"github.com/filezingme/BibiChat-sub000/pkg/events"

	"github.com/google/uuid"
)

const (
	notificationRequestedConsumer = "realtime-notification-requested"
	chatTurnCompletedConsumer     = "realtime-chat-turn-completed"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// notificationRequestedPayload is published by other platform services that want a
// notification delivered without calling the REST API.
type notificationRequestedPayload struct {
	TargetScope     string                 `json:"target_scope"`
	Title           string                 `json:"title"`
	Body            string                 `json:"body"`
	Icon            string                 `json:"icon"`
	Color           string                 `json:"color"`
	BackgroundColor string                 `json:"background_color"`
	Metadata        map[string]interface{} `json:"metadata"`
	ScheduledAt     *time.Time             `json:"scheduled_at"`
	RequestedBy     string                 `json:"requested_by"`
}

// chatTurnCompletedPayload is the bot-answer path's hand-off of one answered question.
type chatTurnCompletedPayload struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	IsSolved  bool      `json:"is_solved"`
	Timestamp time.Time `json:"timestamp"`
}

type consumerService struct {
	subscriber    events.Subscriber
	notifications INotificationService
	chatLogs      IChatLogService
	logger        logger.ILogger
}

func NewConsumerService(
	subscriber events.Subscriber,
	notifications INotificationService,
	chatLogs IChatLogService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:    subscriber,
		notifications: notifications,
		chatLogs:      chatLogs,
		logger:        log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	if err := cs.subscriber.Subscribe(events.TypeNotificationRequested, notificationRequestedConsumer, cs.handleNotificationRequested); err != nil {
		return err
	}
	return cs.subscriber.Subscribe(events.TypeChatTurnCompleted, chatTurnCompletedConsumer, cs.handleChatTurnCompleted)
}

// settle decides whether a failed event is worth redelivering. Only storage failures are;
// a payload that fails validation will fail the same way every time.
func (cs *consumerService) settle(eventType string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := apperror.As(err); ok && !appErr.Retryable() {
		cs.logger.Warn("Consumer", "Dropping rejected event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
		return nil
	}
	cs.logger.Error("Consumer", "Event processing failed", map[string]interface{}{
		"type":  eventType,
		"error": err.Error(),
	})
	return err
}

func (cs *consumerService) handleNotificationRequested(ctx context.Context, evt events.Event) error {
	var payload notificationRequestedPayload
	if err := events.Decode(evt, &payload); err != nil {
		return cs.settle(evt.EventType(), apperror.Wrap(apperror.KindValidation, "malformed payload", err))
	}

	author := entity.Viewer{Role: entity.UserRoleMaster}
	if payload.RequestedBy != "" {
		if id, err := uuid.Parse(payload.RequestedBy); err == nil {
			author.UserID = id
		}
	}

	res, err := cs.notifications.Create(ctx, author, &dto.CreateNotificationRequest{
		TargetScope:     payload.TargetScope,
		Title:           payload.Title,
		Body:            payload.Body,
		Icon:            payload.Icon,
		Color:           payload.Color,
		BackgroundColor: payload.BackgroundColor,
		Metadata:        payload.Metadata,
		ScheduledAt:     payload.ScheduledAt,
	})
	if err != nil {
		return cs.settle(evt.EventType(), err)
	}

	cs.logger.Info("Consumer", "Notification created from event", map[string]interface{}{
		"notification_id": res.ID.String(),
	})
	return nil
}

func (cs *consumerService) handleChatTurnCompleted(ctx context.Context, evt events.Event) error {
	var payload chatTurnCompletedPayload
	if err := events.Decode(evt, &payload); err != nil {
		return cs.settle(evt.EventType(), apperror.Wrap(apperror.KindValidation, "malformed payload", err))
	}
	ownerID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return cs.settle(evt.EventType(), apperror.Validation("user_id must be a valid id"))
	}

	_, err = cs.chatLogs.Append(ctx, &dto.AppendChatLogRequest{
		SessionID:   payload.SessionID,
		OwnerUserID: ownerID,
		Query:       payload.Query,
		Answer:      payload.Answer,
		IsSolved:    payload.IsSolved,
		Timestamp:   payload.Timestamp,
	})
	return cs.settle(evt.EventType(), err)
}
