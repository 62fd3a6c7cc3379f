package model

import (
	"github.com/google/uuid"
)

// ChatLog is one visitor question and bot answer. Rows are never updated.
type ChatLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID   string    `gorm:"type:varchar(128);not null;index:idx_chat_logs_session,priority:1"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index"`
	Query       string    `gorm:"type:text;not null"`
	Answer      string    `gorm:"type:text;not null"`
	IsSolved    bool      `gorm:"not null;default:false"`
	Timestamp   int64     `gorm:"column:occurred_at;not null;index:idx_chat_logs_session,priority:2"` // unix millis
}

func (ChatLog) TableName() string {
	return "chat_logs"
}
