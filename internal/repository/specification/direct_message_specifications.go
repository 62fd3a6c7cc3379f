package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByConversation struct {
	Key string
}

func (s ByConversation) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_key = ?", s.Key)
}

type ByMessageID struct {
	ID string
}

func (s ByMessageID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

// UnreadFor keeps messages received by the user that have not been read.
type UnreadFor struct {
	UserID uuid.UUID
}

func (s UnreadFor) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("receiver_id = ? AND read_at IS NULL", s.UserID)
}

// ConversationOf keeps conversation summaries the user takes part in.
type ConversationOf struct {
	UserID uuid.UUID
}

func (s ConversationOf) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_a_id = ? OR user_b_id = ?", s.UserID, s.UserID)
}
