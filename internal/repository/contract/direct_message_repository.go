package contract

import (
	"context"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/repository/specification"

	"github.com/google/uuid"
)

type DirectMessageRepository interface {
	Create(ctx context.Context, message *entity.DirectMessage) error
	// FindOne loads the message with its reactions.
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DirectMessage, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DirectMessage, error)
	FindByIDs(ctx context.Context, ids []string) ([]*entity.DirectMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	LatestCreatedAt(ctx context.Context, conversationKey string) (*time.Time, error)

	MarkMessagesRead(ctx context.Context, messageIDs []string, receiverID uuid.UUID, at time.Time) (int64, error)
	CountUnreadByConversation(ctx context.Context, receiverID uuid.UUID, keys []string) (map[string]int64, error)

	AddReaction(ctx context.Context, messageID string, reaction entity.Reaction) error
	RemoveReaction(ctx context.Context, messageID string, userID uuid.UUID, emoji string) (bool, error)

	// TouchConversation records message as the newest activity of its conversation.
	TouchConversation(ctx context.Context, message *entity.DirectMessage) error
	ListConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Conversation, int64, error)
}
