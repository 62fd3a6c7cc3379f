package contract

import (
	"context"

	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatLogRepository interface {
	Create(ctx context.Context, entry *entity.ChatLogEntry) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatLogEntry, error)
	// SessionOwner returns the tenant owning sessionID, or false when the session has no entries.
	SessionOwner(ctx context.Context, sessionID string) (uuid.UUID, bool, error)
	ListSessions(ctx context.Context, scope entity.OwnerScope, limit, offset int) ([]*entity.ChatSession, int64, error)
}
