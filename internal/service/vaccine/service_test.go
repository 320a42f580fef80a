package vaccine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository/blob"
	"github.com/cirs/cirs-api/pkg/blobstore"
	apperrors "github.com/cirs/cirs-api/pkg/errors"
)

func intPtr(n int) *int { return &n }

func TestCreateAndList(t *testing.T) {
	repos := blob.New(blobstore.NewMemoryStore(), "")
	svc := NewService(repos.Vaccines)
	ctx := context.Background()

	for _, req := range []model.CreateVaccineRequest{
		{Name: "MMR", RecommendedAgeMonths: intPtr(12)},
		{Name: "Hepatitis B", RecommendedAgeMonths: intPtr(0)},
		{Name: "BCG", RecommendedAgeMonths: intPtr(0)},
	} {
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	names := make([]string, len(list))
	for i, v := range list {
		names[i] = v.Name
	}
	assert.Equal(t, []string{"BCG", "Hepatitis B", "MMR"}, names)

	_, err = svc.Create(ctx, model.CreateVaccineRequest{Name: "mmr", RecommendedAgeMonths: intPtr(15)})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	_, err = svc.Create(ctx, model.CreateVaccineRequest{Name: "Polio", RecommendedAgeMonths: intPtr(-1)})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	got, err := svc.Get(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "BCG", got.Name)

	_, err = svc.Get(ctx, "missing")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
