package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationVisibleTo keeps notifications addressed to the viewer.
// Broadcasts are included only when IncludeBroadcast is set; the master never receives them.
type NotificationVisibleTo struct {
	UserID           uuid.UUID
	IncludeBroadcast bool
}

func (s NotificationVisibleTo) Apply(db *gorm.DB) *gorm.DB {
	if s.IncludeBroadcast {
		return db.Where("(notifications.target_type = ? OR (notifications.target_type = ? AND notifications.target_user_id = ?))",
			"all", "user", s.UserID)
	}
	return db.Where("notifications.target_type = ? AND notifications.target_user_id = ?", "user", s.UserID)
}

// Dispatched keeps notifications that have already been delivered.
type Dispatched struct{}

func (s Dispatched) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notifications.dispatched_at IS NOT NULL")
}

type NotDispatched struct{}

func (s NotDispatched) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notifications.dispatched_at IS NULL")
}

// DueAt keeps undelivered notifications whose scheduled time has passed.
type DueAt struct {
	Now time.Time
}

func (s DueAt) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notifications.dispatched_at IS NULL AND notifications.scheduled_at <= ?", s.Now)
}

// UnreadBy keeps notifications without a read record for the user.
type UnreadBy struct {
	UserID uuid.UUID
}

func (s UnreadBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("NOT EXISTS (SELECT 1 FROM notification_reads nr WHERE nr.notification_id = notifications.id AND nr.user_id = ?)", s.UserID)
}
