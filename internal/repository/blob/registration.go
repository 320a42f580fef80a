package blob

import (
	"context"
	"strings"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/pkg/blobstore"
)

type RegistrationRepository struct {
	c *collection[model.PendingRegistration]
}

func NewRegistrationRepository(store blobstore.Store, key string) *RegistrationRepository {
	return &RegistrationRepository{
		c: newCollection(store, key, func(r *model.PendingRegistration) string { return r.ID }),
	}
}

func (r *RegistrationRepository) List(ctx context.Context) ([]*model.PendingRegistration, error) {
	return r.c.all(ctx)
}

func (r *RegistrationRepository) Get(ctx context.Context, id string) (*model.PendingRegistration, error) {
	return r.c.get(ctx, id)
}

func (r *RegistrationRepository) GetByEmail(ctx context.Context, email string) (*model.PendingRegistration, error) {
	email = strings.TrimSpace(email)
	return r.c.find(ctx, func(reg *model.PendingRegistration) bool { return strings.EqualFold(reg.Email, email) })
}

func (r *RegistrationRepository) Create(ctx context.Context, reg *model.PendingRegistration) error {
	return r.c.insert(ctx, func(existing, reg *model.PendingRegistration) bool {
		return strings.EqualFold(existing.Email, reg.Email)
	}, reg)
}

func (r *RegistrationRepository) Update(ctx context.Context, id string, fn func(*model.PendingRegistration) error) (*model.PendingRegistration, error) {
	return r.c.update(ctx, id, fn)
}
