package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository"
	"github.com/cirs/cirs-api/internal/service/vaccination"
	apperrors "github.com/cirs/cirs-api/pkg/errors"
	"github.com/cirs/cirs-api/pkg/storage"
)

// Palette is cycled through for the vaccine distribution.
var Palette = []string{"#3B82F6", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6", "#06B6D4"}

// MonthsCovered is the length of the monthly series.
const MonthsCovered = 6

type ageGroup struct {
	label     string
	maxMonths int
}

var ageGroups = []ageGroup{
	{"0-1 years", 12},
	{"1-2 years", 24},
	{"2-5 years", 60},
	{"5-12 years", 144},
	{"12+ years", -1},
}

type Service struct {
	patients     repository.PatientRepository
	vaccinations *vaccination.Service
	objects      storage.ObjectStore
	now          func() time.Time
}

// NewService builds the report service. objects may be nil when no object
// storage is configured; uploads then fail with 503.
func NewService(patients repository.PatientRepository, vaccinations *vaccination.Service, objects storage.ObjectStore) *Service {
	return &Service{
		patients:     patients,
		vaccinations: vaccinations,
		objects:      objects,
		now:          time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Build aggregates every record and patient in a single pass each.
func (s *Service) Build(ctx context.Context) (*model.Report, error) {
	views, err := s.vaccinations.Views(ctx, nil)
	if err != nil {
		return nil, err
	}
	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	now := s.now()
	return &model.Report{
		GeneratedAt:         now.UTC(),
		Stats:               Stats(views, now),
		MonthlyData:         Monthly(views, now),
		VaccineDistribution: VaccineDistribution(views),
		AgeGroupData:        AgeGroups(patients, now),
	}, nil
}

func Stats(views []model.VaccinationView, now time.Time) model.ReportStats {
	today := model.DateOf(now)
	stats := model.ReportStats{TotalVaccinations: len(views)}
	for _, v := range views {
		switch {
		case v.Administered():
			stats.Completed++
		case v.DueDate.Before(today):
			stats.Overdue++
		default:
			stats.Scheduled++
		}
	}
	return stats
}

// Monthly counts administered records over the last MonthsCovered calendar
// months, oldest first.
func Monthly(views []model.VaccinationView, now time.Time) []model.MonthlyCount {
	today := model.DateOf(now)
	first := model.NewDate(today.Year(), today.Month(), 1)

	months := make([]model.MonthlyCount, MonthsCovered)
	index := make(map[string]int, MonthsCovered)
	for i := 0; i < MonthsCovered; i++ {
		m := first.AddDate(0, i-(MonthsCovered-1), 0)
		key := m.Format("2006-01")
		months[i] = model.MonthlyCount{Month: m.Format("Jan 2006"), Key: key}
		index[key] = i
	}

	for _, v := range views {
		if !v.Administered() {
			continue
		}
		if i, ok := index[v.AdministeredDate.Format("2006-01")]; ok {
			months[i].Vaccinations++
		}
	}
	return months
}

// VaccineDistribution groups administered records by vaccine name, largest
// group first.
func VaccineDistribution(views []model.VaccinationView) []model.VaccineShare {
	counts := make(map[string]int)
	for _, v := range views {
		if v.Administered() {
			counts[v.VaccineName()]++
		}
	}

	shares := make([]model.VaccineShare, 0, len(counts))
	for name, n := range counts {
		shares = append(shares, model.VaccineShare{Name: name, Value: n})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Value != shares[j].Value {
			return shares[i].Value > shares[j].Value
		}
		return shares[i].Name < shares[j].Name
	})
	for i := range shares {
		shares[i].Color = Palette[i%len(Palette)]
	}
	return shares
}

// AgeGroups always returns every bucket, youngest first.
func AgeGroups(patients []*model.Patient, now time.Time) []model.AgeGroupCount {
	out := make([]model.AgeGroupCount, len(ageGroups))
	for i, g := range ageGroups {
		out[i].AgeGroup = g.label
	}

	for _, p := range patients {
		months := p.AgeInMonths(now)
		for i, g := range ageGroups {
			if g.maxMonths < 0 || months < g.maxMonths {
				out[i].Count++
				break
			}
		}
	}
	return out
}

// FileName is the download name of a report generated at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("vaccination-report-%s.json", t.Format(model.DateLayout))
}

// Export renders the report as an indented JSON document.
func (s *Service) Export(ctx context.Context) ([]byte, string, error) {
	r, err := s.Build(ctx)
	if err != nil {
		return nil, "", err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode report: %w", err)
	}
	return data, FileName(r.GeneratedAt), nil
}

// Upload exports the report to object storage.
func (s *Service) Upload(ctx context.Context) (*model.ExportResult, error) {
	if s.objects == nil {
		return nil, apperrors.Unavailable("object storage is not configured", nil)
	}

	data, name, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	key := fmt.Sprintf("reports/%s/%d-%s", now.Format("2006/01"), now.Unix(), name)
	obj, err := s.objects.Put(ctx, key, "application/json", data)
	if err != nil {
		return nil, apperrors.Unavailable("failed to upload report", err)
	}

	return &model.ExportResult{
		Bucket:    obj.Bucket,
		ObjectKey: obj.Key,
		URL:       obj.URL,
		Size:      obj.Size,
		CreatedAt: now,
	}, nil
}
