package dto

import (
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/entity"

	"github.com/google/uuid"
)

type CreateNotificationRequest struct {
	TargetScope     string                 `json:"targetScope" validate:"required"` // "all" or a user id
	Title           string                 `json:"title" validate:"required,max=200"`
	Body            string                 `json:"body" validate:"required"`
	Icon            string                 `json:"icon" validate:"max=64"`
	Color           string                 `json:"color" validate:"max=64"`
	BackgroundColor string                 `json:"backgroundColor" validate:"max=64"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	ScheduledAt     *time.Time             `json:"scheduledAt,omitempty"` // nil means now
}

type NotificationResponse struct {
	ID              uuid.UUID              `json:"id"`
	TargetScope     entity.TargetScope     `json:"targetScope"`
	Title           string                 `json:"title"`
	Body            string                 `json:"body"`
	Icon            string                 `json:"icon,omitempty"`
	Color           string                 `json:"color,omitempty"`
	BackgroundColor string                 `json:"backgroundColor,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	ScheduledAt     time.Time              `json:"scheduledAt"`
	IsRead          bool                   `json:"isRead"`
}

type SentNotificationResponse struct {
	ID           uuid.UUID          `json:"id"`
	TargetScope  entity.TargetScope `json:"targetScope"`
	Title        string             `json:"title"`
	Body         string             `json:"body"`
	CreatedAt    time.Time          `json:"createdAt"`
	ScheduledAt  time.Time          `json:"scheduledAt"`
	DispatchedAt *time.Time         `json:"dispatchedAt,omitempty"`
	ReadCount    int64              `json:"readCount"`
}

type MarkReadRequest struct {
	NotificationID uuid.UUID `json:"notificationId" validate:"required"`
}
