package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendDirectMessageRequest struct {
	ReceiverID uuid.UUID `json:"receiverId" validate:"required"`
	Content    string    `json:"content" validate:"required,max=4000"`
	Type       string    `json:"type" validate:"omitempty,oneof=text sticker emoji"`
	ReplyToID  *string   `json:"replyToId,omitempty"`
}

type ReactRequest struct {
	Emoji string `json:"emoji" validate:"required,max=32"`
}

type ReactionResponse struct {
	UserID uuid.UUID `json:"userId"`
	Emoji  string    `json:"emoji"`
}

type DirectMessageResponse struct {
	ID              string             `json:"id"`
	ConversationKey string             `json:"conversationKey"`
	SenderID        uuid.UUID          `json:"senderId"`
	ReceiverID      uuid.UUID          `json:"receiverId"`
	Content         string             `json:"content"`
	Type            string             `json:"type"`
	ReplyToID       *string            `json:"replyToId,omitempty"`
	Reactions       []ReactionResponse `json:"reactions"`
	IsRead          bool               `json:"isRead"`
	CreatedAt       time.Time          `json:"createdAt"`
}

type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"fullName"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	Role      string    `json:"role"`
}

type ConversationResponse struct {
	ConversationKey string                 `json:"conversationKey"`
	PeerID          uuid.UUID              `json:"peerId"`
	Peer            *UserSummary           `json:"peer,omitempty"`
	LastMessage     *DirectMessageResponse `json:"lastMessage,omitempty"`
	LastActivityAt  time.Time              `json:"lastActivityAt"`
	UnreadCount     int64                  `json:"unreadCount"`
}
