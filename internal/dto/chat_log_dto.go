package dto

import (
	"time"

	"github.com/google/uuid"
)

type ListSessionsQuery struct {
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
	UserID string `query:"userId"` // master only: narrow to one tenant
}

func (q ListSessionsQuery) PageQuery() PageQuery {
	return PageQuery{Page: q.Page, Limit: q.Limit}.Normalize()
}

type ChatSessionResponse struct {
	SessionID    string    `json:"sessionId"`
	UserID       uuid.UUID `json:"userId"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	MessageCount int64     `json:"messageCount"`
	Preview      string    `json:"preview"`
}

type ChatLogResponse struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"sessionId"`
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	IsSolved  bool      `json:"isSolved"`
	Timestamp time.Time `json:"timestamp"`
}

// AppendChatLogRequest is the hand-off from the bot-answer path.
type AppendChatLogRequest struct {
	SessionID   string    `json:"sessionId" validate:"required,max=128"`
	OwnerUserID uuid.UUID `json:"userId" validate:"required"`
	Query       string    `json:"query" validate:"required"`
	Answer      string    `json:"answer"`
	IsSolved    bool      `json:"isSolved"`
	Timestamp   time.Time `json:"timestamp"`
}
