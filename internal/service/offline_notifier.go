package service

import (
	"context"
	"sync"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/logger"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/mailer"

	"github.com/google/uuid"
)

const offlineNoticeTimeout = 30 * time.Second

type IOfflineNotifier interface {
	NotificationDelivered(userID uuid.UUID, n *entity.Notification)
	DirectMessageDelivered(m *entity.DirectMessage)
	Wait()
}

// offlineNotifier mails users who were offline when a live event targeted them.
// It runs after emission and never affects the caller's result.
type offlineNotifier struct {
	mailer    mailer.IEmailService
	presence  PresenceReader
	directory UserDirectory
	logger    logger.ILogger
	wg        sync.WaitGroup
}

func NewOfflineNotifier(m mailer.IEmailService, presence PresenceReader, directory UserDirectory, log logger.ILogger) IOfflineNotifier {
	if m == nil {
		return noopOfflineNotifier{}
	}
	return &offlineNotifier{
		mailer:    m,
		presence:  presence,
		directory: directory,
		logger:    log,
	}
}

func (o *offlineNotifier) NotificationDelivered(userID uuid.UUID, n *entity.Notification) {
	if o.presence.IsOnline(userID) {
		return
	}
	title, body := n.Title, n.Body
	o.async(func(ctx context.Context) error {
		user, err := o.directory.Get(ctx, userID)
		if err != nil || user == nil || user.Email == "" {
			return err
		}
		return o.mailer.SendNotificationNotice(user.Email, title, body)
	})
}

func (o *offlineNotifier) DirectMessageDelivered(m *entity.DirectMessage) {
	if o.presence.IsOnline(m.ReceiverID) {
		return
	}
	senderID, receiverID := m.SenderID, m.ReceiverID
	o.async(func(ctx context.Context) error {
		users, err := o.directory.GetMany(ctx, []uuid.UUID{senderID, receiverID})
		if err != nil {
			return err
		}
		receiver, sender := users[receiverID], users[senderID]
		if receiver == nil || receiver.Email == "" {
			return nil
		}
		senderName := "Someone"
		if sender != nil && sender.FullName != "" {
			senderName = sender.FullName
		}
		return o.mailer.SendDirectMessageNotice(receiver.Email, senderName)
	})
}

func (o *offlineNotifier) async(fn func(ctx context.Context) error) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), offlineNoticeTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			o.logger.Warn("OfflineNotifier", "Failed to send offline notice", map[string]interface{}{"error": err.Error()})
		}
	}()
}

// Wait blocks until in-flight notices finish. Used on shutdown.
func (o *offlineNotifier) Wait() {
	o.wg.Wait()
}

type noopOfflineNotifier struct{}

func (noopOfflineNotifier) NotificationDelivered(uuid.UUID, *entity.Notification) {}
func (noopOfflineNotifier) DirectMessageDelivered(*entity.DirectMessage)          {}
func (noopOfflineNotifier) Wait()                                                 {}
