package blob

import (
	"context"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/pkg/blobstore"
)

type PatientRepository struct {
	c *collection[model.Patient]
}

func NewPatientRepository(store blobstore.Store, key string) *PatientRepository {
	return &PatientRepository{
		c: newCollection(store, key, func(p *model.Patient) string { return p.ID }),
	}
}

func (r *PatientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	return r.c.all(ctx)
}

func (r *PatientRepository) Get(ctx context.Context, id string) (*model.Patient, error) {
	return r.c.get(ctx, id)
}

func (r *PatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	return r.c.insert(ctx, nil, patient)
}

func (r *PatientRepository) Update(ctx context.Context, id string, fn func(*model.Patient) error) (*model.Patient, error) {
	return r.c.update(ctx, id, fn)
}

func (r *PatientRepository) Delete(ctx context.Context, id string) error {
	return r.c.remove(ctx, id)
}

func (r *PatientRepository) ListByParent(ctx context.Context, parentID string) ([]*model.Patient, error) {
	return r.c.filter(ctx, func(p *model.Patient) bool { return p.BelongsTo(parentID) })
}
