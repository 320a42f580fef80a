package blob

import (
	"context"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/pkg/blobstore"
)

type VaccinationRepository struct {
	c *collection[model.VaccinationRecord]
}

func NewVaccinationRepository(store blobstore.Store, key string) *VaccinationRepository {
	return &VaccinationRepository{
		c: newCollection(store, key, func(v *model.VaccinationRecord) string { return v.ID }),
	}
}

func (r *VaccinationRepository) List(ctx context.Context) ([]*model.VaccinationRecord, error) {
	return r.c.all(ctx)
}

func (r *VaccinationRepository) Get(ctx context.Context, id string) (*model.VaccinationRecord, error) {
	return r.c.get(ctx, id)
}

func (r *VaccinationRepository) Create(ctx context.Context, record *model.VaccinationRecord) error {
	return r.c.insert(ctx, nil, record)
}

// CreateMany stores all records in one write, or none of them.
func (r *VaccinationRepository) CreateMany(ctx context.Context, records []*model.VaccinationRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.c.insert(ctx, nil, records...)
}

func (r *VaccinationRepository) Update(ctx context.Context, id string, fn func(*model.VaccinationRecord) error) (*model.VaccinationRecord, error) {
	return r.c.update(ctx, id, fn)
}

func (r *VaccinationRepository) Delete(ctx context.Context, id string) error {
	return r.c.remove(ctx, id)
}

func (r *VaccinationRepository) DeleteByPatient(ctx context.Context, patientID string) (int, error) {
	return r.c.removeWhere(ctx, func(v *model.VaccinationRecord) bool { return v.PatientID == patientID })
}
