package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	NotificationTargetAll  = "all"
	NotificationTargetUser = "user"
)

// Notification is one broadcastable system message. Read state lives in NotificationRead.
type Notification struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TargetType      string         `gorm:"type:varchar(10);not null;index:idx_notifications_target,priority:1"`
	TargetUserID    *uuid.UUID     `gorm:"type:uuid;index:idx_notifications_target,priority:2"`
	Title           string         `gorm:"type:varchar(200);not null"`
	Body            string         `gorm:"type:text;not null"`
	Icon            string         `gorm:"type:varchar(64)"`
	Color           string         `gorm:"type:varchar(64)"`
	BackgroundColor string         `gorm:"type:varchar(64)"`
	Metadata        datatypes.JSON `gorm:""`
	CreatedBy       *uuid.UUID     `gorm:"type:uuid"`
	CreatedAt       time.Time      `gorm:"not null;index"`
	ScheduledAt     time.Time      `gorm:"not null;index:idx_notifications_due,priority:2"`
	DispatchedAt    *time.Time     `gorm:"index:idx_notifications_due,priority:1"`
}

func (Notification) TableName() string {
	return "notifications"
}

// NotificationRead records that one viewer has read one notification.
// The composite key makes marking read idempotent.
type NotificationRead struct {
	NotificationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	ReadAt         time.Time `gorm:"not null"`
}

func (NotificationRead) TableName() string {
	return "notification_reads"
}
