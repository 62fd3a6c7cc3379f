package entity

import (
	"time"

	"github.com/google/uuid"
)

// OwnerScope selects whose chat logs a query may see: one tenant, or all tenants for the master.
type OwnerScope struct {
	all      bool
	tenantID uuid.UUID
}

func AllTenants() OwnerScope {
	return OwnerScope{all: true}
}

func TenantScope(tenantID uuid.UUID) OwnerScope {
	return OwnerScope{tenantID: tenantID}
}

func (s OwnerScope) IsAll() bool {
	return s.all
}

func (s OwnerScope) TenantID() uuid.UUID {
	return s.tenantID
}

type ChatLogEntry struct {
	ID          uuid.UUID
	SessionID   string
	OwnerUserID uuid.UUID
	Query       string
	Answer      string
	IsSolved    bool
	Timestamp   time.Time
}

// ChatSession is derived from the log entries sharing a session id.
type ChatSession struct {
	SessionID    string
	OwnerUserID  uuid.UUID
	LastActiveAt time.Time
	MessageCount int64
	Preview      string
}
