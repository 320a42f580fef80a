package blob

import (
	"context"
	"strings"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/pkg/blobstore"
)

type VaccineRepository struct {
	c *collection[model.Vaccine]
}

func NewVaccineRepository(store blobstore.Store, key string) *VaccineRepository {
	return &VaccineRepository{
		c: newCollection(store, key, func(v *model.Vaccine) string { return v.ID }),
	}
}

func (r *VaccineRepository) List(ctx context.Context) ([]*model.Vaccine, error) {
	return r.c.all(ctx)
}

func (r *VaccineRepository) Get(ctx context.Context, id string) (*model.Vaccine, error) {
	return r.c.get(ctx, id)
}

// Create rejects a second vaccine with the same name, ignoring case.
func (r *VaccineRepository) Create(ctx context.Context, vaccine *model.Vaccine) error {
	return r.c.insert(ctx, func(existing, v *model.Vaccine) bool {
		return strings.EqualFold(existing.Name, v.Name)
	}, vaccine)
}
