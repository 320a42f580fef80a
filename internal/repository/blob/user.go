package blob

import (
	"context"
	"strings"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/pkg/blobstore"
)

type UserRepository struct {
	c *collection[model.User]
}

func NewUserRepository(store blobstore.Store, key string) *UserRepository {
	return &UserRepository{
		c: newCollection(store, key, func(u *model.User) string { return u.ID }),
	}
}

func (r *UserRepository) List(ctx context.Context) ([]*model.User, error) {
	return r.c.all(ctx)
}

func (r *UserRepository) Get(ctx context.Context, id string) (*model.User, error) {
	return r.c.get(ctx, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.TrimSpace(email)
	return r.c.find(ctx, func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

// Create enforces email uniqueness inside the same atomic write.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.c.insert(ctx, func(existing, u *model.User) bool {
		return strings.EqualFold(existing.Email, u.Email)
	}, user)
}

func (r *UserRepository) Update(ctx context.Context, id string, fn func(*model.User) error) (*model.User, error) {
	return r.c.update(ctx, id, fn)
}
