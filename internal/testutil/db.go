package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/model"
	"github.com/filezingme/BibiChat-sub000/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with every table migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + uuid.NewString()[:8]
	db, err := database.NewSQLiteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.Migratable()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedUser inserts a user with the given role and returns its id.
func SeedUser(t *testing.T, db *gorm.DB, name string, role entity.UserRole) uuid.UUID {
	t.Helper()

	id := uuid.New()
	err := db.Create(&model.User{
		Id:       id,
		Email:    strings.ToLower(name) + "-" + id.String()[:8] + "@example.com",
		FullName: name,
		Role:     string(role),
	}).Error
	require.NoError(t, err)
	return id
}
