// FILE: internal/entity/user_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleTenant UserRole = "user"
	UserRoleMaster UserRole = "master"
)

type User struct {
	Id        uuid.UUID
	Email     string
	FullName  string
	Role      UserRole
	AvatarURL *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) IsMaster() bool {
	return u.Role == UserRoleMaster
}

// Viewer is the authenticated caller a query is evaluated for.
type Viewer struct {
	UserID uuid.UUID
	Role   UserRole
}

func (v Viewer) IsMaster() bool {
	return v.Role == UserRoleMaster
}
