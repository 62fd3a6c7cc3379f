package memory

import (
	"context"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/repository/specification"
	"github.com/filezingme/BibiChat-sub000/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// UserDirectory caches user lookups. The user table is owned by the identity
// service and changes rarely, so a short TTL is enough to stay fresh.
type UserDirectory struct {
	cache      *cache.Cache
	uowFactory unitofwork.RepositoryFactory
}

func NewUserDirectory(uowFactory unitofwork.RepositoryFactory, ttl time.Duration) *UserDirectory {
	return &UserDirectory{
		cache:      cache.New(ttl, 2*ttl),
		uowFactory: uowFactory,
	}
}

// Get returns the user, or nil when no such user exists. Misses are not cached.
func (d *UserDirectory) Get(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if x, found := d.cache.Get(id.String()); found {
		return x.(*entity.User), nil
	}

	user, err := d.uowFactory.NewUnitOfWork(ctx).UserRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if user != nil {
		d.cache.Set(id.String(), user, cache.DefaultExpiration)
	}
	return user, nil
}

// GetMany resolves ids, skipping unknown users.
func (d *UserDirectory) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.User, error) {
	res := make(map[uuid.UUID]*entity.User, len(ids))
	missing := make([]uuid.UUID, 0)
	for _, id := range ids {
		if x, found := d.cache.Get(id.String()); found {
			res[id] = x.(*entity.User)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return res, nil
	}

	users, err := d.uowFactory.NewUnitOfWork(ctx).UserRepository().FindAll(ctx, specification.ByIDs{IDs: missing})
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		d.cache.Set(u.Id.String(), u, cache.DefaultExpiration)
		res[u.Id] = u
	}
	return res, nil
}

func (d *UserDirectory) Invalidate(id uuid.UUID) {
	d.cache.Delete(id.String())
}
