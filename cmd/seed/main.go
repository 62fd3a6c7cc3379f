package main

import (
	"context"
	"log"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/config"
	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/model"
	"github.com/filezingme/BibiChat-sub000/internal/repository/specification"
	"github.com/filezingme/BibiChat-sub000/internal/repository/unitofwork"
	"github.com/filezingme/BibiChat-sub000/pkg/database"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Seeds a local directory: one master and two tenants, plus a welcome broadcast.
func main() {
	cfg := config.Load()

	db, err := database.NewGormDB(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(db)

	log.Println("Seeding users...")
	var masterID uuid.UUID
	users := []entity.User{
		{Email: "master@bibichat.local", FullName: "Platform Master", Role: entity.UserRoleMaster},
		{Email: "acme@bibichat.local", FullName: "Acme Shop", Role: entity.UserRoleTenant},
		{Email: "globex@bibichat.local", FullName: "Globex Support", Role: entity.UserRoleTenant},
	}
	for _, u := range users {
		id, err := seedUser(ctx, uowFactory, u)
		if err != nil {
			log.Printf("Error creating user '%s': %v", u.Email, err)
			continue
		}
		if u.IsMaster() {
			masterID = id
		}
	}

	log.Println("Seeding welcome notification...")
	var existing int64
	db.Model(&model.Notification{}).Where("title = ?", "Welcome to BibiChat").Count(&existing)
	if existing > 0 {
		log.Println("Welcome notification already exists, skipping...")
	} else {
		now := time.Now().UTC()
		n := model.Notification{
			ID:           uuid.New(),
			TargetType:   model.NotificationTargetAll,
			Title:        "Welcome to BibiChat",
			Body:         "Your chatbot widget is ready to embed.",
			Icon:         "sparkles",
			Metadata:     datatypes.JSON([]byte(`{}`)),
			CreatedBy:    &masterID,
			CreatedAt:    now,
			ScheduledAt:  now,
			DispatchedAt: &now,
		}
		if err := db.Create(&n).Error; err != nil {
			log.Printf("Error creating notification: %v", err)
		}
	}

	log.Println("Seeding completed!")
}

func seedUser(ctx context.Context, uowFactory unitofwork.RepositoryFactory, u entity.User) (uuid.UUID, error) {
	repo := uowFactory.NewUnitOfWork(ctx).UserRepository()

	existing, err := repo.FindOne(ctx, specification.ByEmail{Email: u.Email})
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		log.Printf("User '%s' already exists (%s), skipping...", u.Email, existing.Id)
		return existing.Id, nil
	}

	if err := repo.Create(ctx, &u); err != nil {
		return uuid.Nil, err
	}
	log.Printf("Created user: %s (%s, %s)", u.FullName, u.Role, u.Id)
	return u.Id, nil
}
