package unitofwork

import (
	"context"

	"github.com/filezingme/BibiChat-sub000/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	NotificationRepository() contract.NotificationRepository
	DirectMessageRepository() contract.DirectMessageRepository
	ChatLogRepository() contract.ChatLogRepository
}
