package patient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository/blob"
	"github.com/cirs/cirs-api/internal/service/event"
	"github.com/cirs/cirs-api/pkg/blobstore"
	apperrors "github.com/cirs/cirs-api/pkg/errors"
)

var now = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *blob.Repositories) {
	t.Helper()
	ctx := context.Background()
	repos := blob.New(blobstore.NewMemoryStore(), "")

	require.NoError(t, repos.Users.Create(ctx, &model.User{ID: "parent-1", Email: "parent@cirs.demo", Role: model.RoleParent}))
	require.NoError(t, repos.Users.Create(ctx, &model.User{ID: "nurse-1", Email: "nurse@cirs.demo", Role: model.RoleHealthcareWorker}))

	parentID := "parent-1"
	require.NoError(t, repos.Patients.Create(ctx, &model.Patient{ID: "p1", FullName: "Emma Smith", ParentName: "John Smith", Gender: model.GenderFemale, DateOfBirth: model.NewDate(2023, 1, 15), ParentID: &parentID}))
	require.NoError(t, repos.Patients.Create(ctx, &model.Patient{ID: "p2", FullName: "Liam Johnson", ParentName: "Sarah Johnson", Gender: model.GenderMale, DateOfBirth: model.NewDate(2022, 6, 10)}))
	require.NoError(t, repos.Vaccinations.Create(ctx, &model.VaccinationRecord{ID: "r1", PatientID: "p1", VaccineID: "v1"}))
	require.NoError(t, repos.Vaccinations.Create(ctx, &model.VaccinationRecord{ID: "r2", PatientID: "p2", VaccineID: "v1"}))

	svc := NewService(repos.Patients, repos.Vaccinations, repos.Users, event.NewService(repos.Outbox)).
		WithClock(func() time.Time { return now })
	return svc, repos
}

func validRequest() model.CreatePatientRequest {
	dob := model.NewDate(2024, 1, 1)
	return model.CreatePatientRequest{
		FullName:         " Noah Brown ",
		DateOfBirth:      &dob,
		Gender:           model.GenderMale,
		ParentName:       "Olivia Brown",
		Phone:            "+1-555-0300",
		Email:            "olivia@email.com",
		Address:          "789 Pine Rd",
		EmergencyContact: "+1-555-0301",
	}
}

func TestListSearchAndGender(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	caller := &model.Principal{UserID: "nurse-1", Role: model.RoleHealthcareWorker}

	page, err := svc.List(ctx, caller, model.PatientFilter{Search: "johnson"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "p2", page.Items[0].ID)
	assert.Equal(t, 2, page.Items[0].AgeYears)

	page, err = svc.List(ctx, caller, model.PatientFilter{Gender: model.GenderFemale})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "p1", page.Items[0].ID)
	assert.Equal(t, 17, page.Items[0].AgeMonths)
}

func TestParentSeesOnlyChildren(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	parent := &model.Principal{UserID: "parent-1", Role: model.RoleParent}

	page, err := svc.List(ctx, parent, model.PatientFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "p1", page.Items[0].ID)

	_, err = svc.Get(ctx, parent, "p2")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	children, err := svc.ListForParent(ctx, "parent-1")
	require.NoError(t, err)
	assert.Len(t, children, 1)
}

func TestCreate(t *testing.T) {
	svc, repos := setup(t)
	ctx := context.Background()

	v, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "Noah Brown", v.FullName)
	assert.Nil(t, v.ParentID)

	events, err := repos.Outbox.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventPatientCreated, events[0].EventType)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	req := validRequest()
	future := model.NewDate(2024, 6, 16)
	req.DateOfBirth = &future
	_, err := svc.Create(ctx, req)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	req = validRequest()
	nurse := "nurse-1"
	req.ParentID = &nurse
	_, err = svc.Create(ctx, req)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest), "parent_id must be a parent")

	req = validRequest()
	missing := "nobody"
	req.ParentID = &missing
	_, err = svc.Create(ctx, req)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestUpdateMergesFields(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	phone := "+1-555-9999"
	notes := ""
	v, err := svc.Update(ctx, "p1", model.UpdatePatientRequest{Phone: &phone, MedicalNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "+1-555-9999", v.Phone)
	assert.Equal(t, "Emma Smith", v.FullName)
	assert.Nil(t, v.MedicalNotes)

	_, err = svc.Update(ctx, "missing", model.UpdatePatientRequest{Phone: &phone})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteCascadesToRecords(t *testing.T) {
	svc, repos := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "p1"))

	records, err := repos.Vaccinations.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "r2", records[0].ID)

	err = svc.Delete(ctx, "p1")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
