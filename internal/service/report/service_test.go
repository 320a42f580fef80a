package report

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository/blob"
	"github.com/cirs/cirs-api/internal/service/event"
	"github.com/cirs/cirs-api/internal/service/vaccination"
	"github.com/cirs/cirs-api/pkg/blobstore"
	apperrors "github.com/cirs/cirs-api/pkg/errors"
	"github.com/cirs/cirs-api/pkg/storage"
)

var now = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

func d(y int, m time.Month, day int) *model.Date {
	v := model.NewDate(y, m, day)
	return &v
}

func view(vaccine string, due model.Date, administered *model.Date) model.VaccinationView {
	return model.VaccinationView{
		VaccinationRecord: &model.VaccinationRecord{DueDate: due, AdministeredDate: administered},
		Vaccine:           &model.Vaccine{Name: vaccine},
	}
}

func TestStats(t *testing.T) {
	views := []model.VaccinationView{
		view("BCG", *d(2024, 1, 1), d(2024, 1, 2)),
		view("MMR", *d(2024, 6, 14), nil),
		view("MMR", *d(2024, 6, 15), nil),
		view("DTP", *d(2024, 9, 1), nil),
	}

	assert.Equal(t, model.ReportStats{TotalVaccinations: 4, Completed: 1, Overdue: 1, Scheduled: 2}, Stats(views, now))
}

func TestMonthlyCoversSixMonthsOldestFirst(t *testing.T) {
	views := []model.VaccinationView{
		view("BCG", *d(2024, 1, 1), d(2024, 1, 31)),
		view("BCG", *d(2023, 12, 1), d(2023, 12, 31)),
		view("BCG", *d(2024, 6, 1), d(2024, 6, 15)),
		view("BCG", *d(2024, 6, 1), d(2024, 6, 1)),
		view("BCG", *d(2024, 6, 20), nil),
	}

	months := Monthly(views, now)
	require.Len(t, months, MonthsCovered)
	assert.Equal(t, "Jan 2024", months[0].Month)
	assert.Equal(t, "2024-01", months[0].Key)
	assert.Equal(t, 1, months[0].Vaccinations)
	assert.Equal(t, "Jun 2024", months[5].Month)
	assert.Equal(t, 2, months[5].Vaccinations)

	total := 0
	for _, m := range months {
		total += m.Vaccinations
	}
	assert.Equal(t, 3, total, "December is outside the window")
}

func TestVaccineDistribution(t *testing.T) {
	views := []model.VaccinationView{
		view("MMR", *d(2024, 1, 1), d(2024, 1, 1)),
		view("BCG", *d(2024, 1, 1), d(2024, 1, 1)),
		view("BCG", *d(2024, 1, 1), d(2024, 1, 1)),
		view("DTP", *d(2024, 1, 1), d(2024, 1, 1)),
		view("Polio", *d(2024, 1, 1), nil),
	}

	shares := VaccineDistribution(views)
	assert.Equal(t, []model.VaccineShare{
		{Name: "BCG", Value: 2, Color: Palette[0]},
		{Name: "DTP", Value: 1, Color: Palette[1]},
		{Name: "MMR", Value: 1, Color: Palette[2]},
	}, shares)
}

func TestVaccineDistributionCyclesPalette(t *testing.T) {
	var views []model.VaccinationView
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		views = append(views, view(name, *d(2024, 1, 1), d(2024, 1, 1)))
	}

	shares := VaccineDistribution(views)
	require.Len(t, shares, 7)
	assert.Equal(t, Palette[0], shares[6].Color)
}

func TestAgeGroupsAlwaysListsEveryBucket(t *testing.T) {
	patients := []*model.Patient{
		{DateOfBirth: model.NewDate(2024, 1, 1)},
		{DateOfBirth: model.NewDate(2022, 6, 10)},
		{DateOfBirth: model.NewDate(2010, 1, 1)},
	}

	groups := AgeGroups(patients, now)
	assert.Equal(t, []model.AgeGroupCount{
		{AgeGroup: "0-1 years", Count: 1},
		{AgeGroup: "1-2 years", Count: 0},
		{AgeGroup: "2-5 years", Count: 1},
		{AgeGroup: "5-12 years", Count: 0},
		{AgeGroup: "12+ years", Count: 1},
	}, groups)
}

func newService(t *testing.T, objects storage.ObjectStore) *Service {
	t.Helper()
	ctx := context.Background()
	repos := blob.New(blobstore.NewMemoryStore(), "")

	require.NoError(t, repos.Patients.Create(ctx, &model.Patient{ID: "p1", FullName: "Emma Smith", DateOfBirth: model.NewDate(2023, 1, 15)}))
	require.NoError(t, repos.Vaccines.Create(ctx, &model.Vaccine{ID: "v1", Name: "BCG"}))
	require.NoError(t, repos.Vaccinations.Create(ctx, &model.VaccinationRecord{ID: "r1", PatientID: "p1", VaccineID: "v1", DueDate: model.NewDate(2023, 1, 15), AdministeredDate: d(2024, 6, 1)}))

	clock := func() time.Time { return now }
	vaccinations := vaccination.NewService(repos.Vaccinations, repos.Patients, repos.Vaccines, event.Discard).WithClock(clock)
	return NewService(repos.Patients, vaccinations, objects).WithClock(clock)
}

func TestExport(t *testing.T) {
	svc := newService(t, nil)

	data, name, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "vaccination-report-2024-06-15.json", name)

	var r model.Report
	require.NoError(t, json.Unmarshal(data, &r))
	assert.Equal(t, 1, r.Stats.Completed)
	assert.Equal(t, []model.VaccineShare{{Name: "BCG", Value: 1, Color: Palette[0]}}, r.VaccineDistribution)
}

func TestUpload(t *testing.T) {
	_, err := newService(t, nil).Upload(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrUnavailable))

	objects := storage.NewMemoryStore("reports")
	res, err := newService(t, objects).Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "reports", res.Bucket)
	assert.Equal(t, "reports/2024/06/1718445600-vaccination-report-2024-06-15.json", res.ObjectKey)

	data, ok := objects.Get(res.ObjectKey)
	require.True(t, ok)
	assert.EqualValues(t, len(data), res.Size)
}
