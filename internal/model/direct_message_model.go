package model

import (
	"time"

	"github.com/google/uuid"
)

type DirectMessage struct {
	ID              string     `gorm:"type:varchar(26);primaryKey"` // ULID
	ConversationKey string     `gorm:"type:varchar(80);not null;index:idx_dm_history,priority:1"`
	SenderID        uuid.UUID  `gorm:"type:uuid;not null"`
	ReceiverID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_dm_unread,priority:1"`
	Content         string     `gorm:"type:text;not null"`
	Type            string     `gorm:"type:varchar(16);not null;default:'text'"`
	ReplyToID       *string    `gorm:"type:varchar(26)"`
	ReadAt          *time.Time `gorm:"index:idx_dm_unread,priority:2"`
	CreatedAt       time.Time  `gorm:"not null;index:idx_dm_history,priority:2"`

	Reactions []DirectMessageReaction `gorm:"foreignKey:MessageID"`
}

func (DirectMessage) TableName() string {
	return "direct_messages"
}

type DirectMessageReaction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	MessageID string    `gorm:"type:varchar(26);not null;uniqueIndex:idx_dm_reaction_unique,priority:1"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_dm_reaction_unique,priority:2"`
	Emoji     string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_dm_reaction_unique,priority:3"`
	CreatedAt time.Time `gorm:"not null"`
}

func (DirectMessageReaction) TableName() string {
	return "direct_message_reactions"
}

// DirectConversation is the per-pair activity summary used to order the inbox.
type DirectConversation struct {
	ConversationKey string    `gorm:"type:varchar(80);primaryKey"`
	UserAID         uuid.UUID `gorm:"type:uuid;not null;index"`
	UserBID         uuid.UUID `gorm:"type:uuid;not null;index"`
	LastMessageID   string    `gorm:"type:varchar(26);not null"`
	LastMessageAt   time.Time `gorm:"not null;index"`
}

func (DirectConversation) TableName() string {
	return "direct_conversations"
}
