package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TargetScope addresses a notification either to every eligible tenant or to one user.
// The zero value is not a valid scope.
type TargetScope struct {
	broadcast bool
	userID    uuid.UUID
}

func BroadcastScope() TargetScope {
	return TargetScope{broadcast: true}
}

func DirectScope(userID uuid.UUID) TargetScope {
	return TargetScope{userID: userID}
}

func (s TargetScope) IsBroadcast() bool {
	return s.broadcast
}

// UserID returns the addressed user for a direct scope.
func (s TargetScope) UserID() (uuid.UUID, bool) {
	if s.broadcast || s.userID == uuid.Nil {
		return uuid.Nil, false
	}
	return s.userID, true
}

func (s TargetScope) Valid() bool {
	return s.broadcast || s.userID != uuid.Nil
}

// Includes reports whether viewer is a recipient under this scope.
// Broadcasts reach tenants only; the master authors them.
func (s TargetScope) Includes(viewerID uuid.UUID, viewerRole UserRole) bool {
	if s.broadcast {
		return viewerRole != UserRoleMaster
	}
	return s.userID == viewerID
}

func (s TargetScope) String() string {
	if s.broadcast {
		return "all"
	}
	return s.userID.String()
}

// ParseTargetScope accepts "all" or a user id.
func ParseTargetScope(raw string) (TargetScope, bool) {
	if raw == "all" {
		return BroadcastScope(), true
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return TargetScope{}, false
	}
	return DirectScope(id), true
}

func (s TargetScope) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

type Notification struct {
	ID              uuid.UUID
	Scope           TargetScope
	Title           string
	Body            string
	Icon            string
	Color           string
	BackgroundColor string
	Metadata        map[string]interface{}
	CreatedBy       *uuid.UUID
	CreatedAt       time.Time
	ScheduledAt     time.Time
	DispatchedAt    *time.Time
}

// IsDue reports whether the notification may be delivered at now.
func (n *Notification) IsDue(now time.Time) bool {
	return !n.ScheduledAt.After(now)
}

// ViewerNotification is a notification as seen by one recipient.
type ViewerNotification struct {
	Notification
	IsRead bool
}

// SentNotification is the master's view with delivery progress.
type SentNotification struct {
	Notification
	ReadCount int64
}
