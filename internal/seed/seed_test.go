package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository/blob"
	"github.com/cirs/cirs-api/pkg/blobstore"
	"github.com/cirs/cirs-api/pkg/security"
)

func TestRunSeedsEmptyStoreOnce(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	repos := blob.New(store, "")
	hasher := security.NewBcryptHasher(4)

	written, err := New(store, repos.Keys, hasher).Run(ctx, false)
	require.NoError(t, err)
	assert.Len(t, written, 5)

	patients, err := repos.Patients.List(ctx)
	require.NoError(t, err)
	assert.Len(t, patients, 2)

	vaccines, err := repos.Vaccines.List(ctx)
	require.NoError(t, err)
	assert.Len(t, vaccines, 3)

	admin, err := repos.Users.GetByEmail(ctx, "admin@cirs.demo")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.NotEqual(t, "admin123", admin.PasswordHash)
	assert.NoError(t, hasher.Compare(admin.PasswordHash, "admin123"))

	regs, err := repos.Registrations.List(ctx)
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, model.RegistrationPending, regs[0].Status)

	written, err = New(store, repos.Keys, hasher).Run(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, written)
}

func TestRunKeepsExistingCollections(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	repos := blob.New(store, "")
	require.NoError(t, repos.Patients.Create(ctx, &model.Patient{ID: "mine", FullName: "Own Patient"}))

	written, err := New(store, repos.Keys, security.NewBcryptHasher(4)).Run(ctx, false)
	require.NoError(t, err)
	assert.NotContains(t, written, repos.Keys.Patients)

	patients, err := repos.Patients.List(ctx)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "mine", patients[0].ID)

	written, err = New(store, repos.Keys, security.NewBcryptHasher(4)).Run(ctx, true)
	require.NoError(t, err)
	assert.Len(t, written, 5)

	patients, err = repos.Patients.List(ctx)
	require.NoError(t, err)
	assert.Len(t, patients, 2)
}
