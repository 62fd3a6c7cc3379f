package contract

import (
	"context"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/repository/specification"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Notification, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Notification, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// ClaimDispatch marks the notification dispatched at `at` unless another caller already did.
	// It reports whether this caller won the claim.
	ClaimDispatch(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	// DeletePending removes a notification that has not been dispatched yet.
	DeletePending(ctx context.Context, id uuid.UUID) (bool, error)

	ListForViewer(ctx context.Context, viewerID uuid.UUID, specs ...specification.Specification) ([]*entity.ViewerNotification, error)
	ListSent(ctx context.Context, specs ...specification.Specification) ([]*entity.SentNotification, error)

	MarkRead(ctx context.Context, notificationID, userID uuid.UUID, at time.Time) error
	MarkManyRead(ctx context.Context, notificationIDs []uuid.UUID, userID uuid.UUID, at time.Time) error
}
