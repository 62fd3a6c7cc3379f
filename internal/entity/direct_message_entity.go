package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeText    MessageType = "text"
	MessageTypeSticker MessageType = "sticker"
	MessageTypeEmoji   MessageType = "emoji"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeSticker, MessageTypeEmoji:
		return true
	}
	return false
}

// ConversationKeyOf returns the canonical key of the unordered pair (a, b).
func ConversationKeyOf(a, b uuid.UUID) string {
	as, bs := a.String(), b.String()
	if bs < as {
		as, bs = bs, as
	}
	return as + ":" + bs
}

type Reaction struct {
	UserID    uuid.UUID
	Emoji     string
	CreatedAt time.Time
}

type DirectMessage struct {
	ID              string
	ConversationKey string
	SenderID        uuid.UUID
	ReceiverID      uuid.UUID
	Content         string
	Type            MessageType
	ReplyToID       *string
	Reactions       []Reaction
	ReadAt          *time.Time
	CreatedAt       time.Time
}

// Participant reports whether userID is one side of the message's conversation.
func (m *DirectMessage) Participant(userID uuid.UUID) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Peer returns the other participant relative to userID.
func (m *DirectMessage) Peer(userID uuid.UUID) uuid.UUID {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

type Conversation struct {
	ConversationKey string
	PeerID          uuid.UUID
	LastMessage     *DirectMessage
	LastActivityAt  time.Time
	UnreadCount     int64
}
