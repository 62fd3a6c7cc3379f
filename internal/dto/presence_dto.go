package dto

import (
	"time"

	"github.com/google/uuid"
)

type PresenceResponse struct {
	UserID            uuid.UUID  `json:"userId"`
	Online            bool       `json:"online"`
	LastActiveAt      *time.Time `json:"lastActiveAt,omitempty"`
	ActiveConnections int        `json:"activeConnections"`
}
