package specification

import (
	"github.com/filezingme/BibiChat-sub000/internal/entity"

	"gorm.io/gorm"
)

// ByOwnerScope narrows chat logs to one tenant unless the scope spans all tenants.
type ByOwnerScope struct {
	Scope entity.OwnerScope
}

func (s ByOwnerScope) Apply(db *gorm.DB) *gorm.DB {
	if s.Scope.IsAll() {
		return db
	}
	return db.Where("owner_user_id = ?", s.Scope.TenantID())
}

type BySession struct {
	SessionID string
}

func (s BySession) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}
