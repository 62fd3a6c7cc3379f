package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/presence"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	To      string
	Subject string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) SendNotificationNotice(toEmail, title, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: toEmail, Subject: title})
	return nil
}

func (m *fakeMailer) SendDirectMessageNotice(toEmail, senderName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: toEmail, Subject: "dm from " + senderName})
	return nil
}

func (m *fakeMailer) all() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

func TestOfflineNotifier_MailsOnlyOfflineUsers(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user(t, "Alice"), f.user(t, "Bob")

	tracker := presence.NewTracker(time.Minute)
	tracker.OnConnect(alice)

	mail := &fakeMailer{}
	notifier := NewOfflineNotifier(mail, tracker, f.directory, f.log)

	n := &entity.Notification{ID: uuid.New(), Title: "Maintenance", Body: "Tonight"}
	notifier.NotificationDelivered(alice, n)
	notifier.NotificationDelivered(bob, n)
	notifier.DirectMessageDelivered(&entity.DirectMessage{SenderID: alice, ReceiverID: bob, Content: "hi"})
	notifier.DirectMessageDelivered(&entity.DirectMessage{SenderID: bob, ReceiverID: alice, Content: "hey"})
	notifier.Wait()

	bobUser, err := f.directory.Get(context.Background(), bob)
	require.NoError(t, err)

	sent := mail.all()
	require.Len(t, sent, 2)
	assert.ElementsMatch(t, []sentMail{
		{To: bobUser.Email, Subject: "Maintenance"},
		{To: bobUser.Email, Subject: "dm from Alice"},
	}, sent)
}

func TestOfflineNotifier_DisabledWithoutMailer(t *testing.T) {
	notifier := NewOfflineNotifier(nil, presence.NewTracker(time.Minute), nil, nil)
	notifier.NotificationDelivered(uuid.New(), &entity.Notification{})
	notifier.Wait()
	assert.IsType(t, noopOfflineNotifier{}, notifier)
}
