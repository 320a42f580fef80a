package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	d := NewDate(2022, time.March, 15)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2022-03-15"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal([]byte(`"2022-03-15T18:30:00Z"`), &back))
	assert.True(t, back.Equal(d))

	assert.Error(t, json.Unmarshal([]byte(`"15/03/2022"`), &back))

	zero, err := json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(zero))
}

func TestOptionalDateDistinguishesNullFromAbsent(t *testing.T) {
	var absent UpdateVaccinationRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &absent))
	assert.False(t, absent.AdministeredDate.Set)

	var cleared UpdateVaccinationRequest
	require.NoError(t, json.Unmarshal([]byte(`{"administered_date": null}`), &cleared))
	assert.True(t, cleared.AdministeredDate.Set)
	assert.Nil(t, cleared.AdministeredDate.Value)

	var set UpdateVaccinationRequest
	require.NoError(t, json.Unmarshal([]byte(`{"administered_date": "2024-01-02"}`), &set))
	require.NotNil(t, set.AdministeredDate.Value)
	assert.Equal(t, "2024-01-02", set.AdministeredDate.Value.String())

	rec := &VaccinationRecord{AdministeredDate: set.AdministeredDate.Value}
	cleared.Apply(rec)
	assert.Nil(t, rec.AdministeredDate)
}

func TestPatientFilterMatches(t *testing.T) {
	p := &Patient{FullName: "Emma Smith", ParentName: "John Smith", Gender: GenderFemale}

	assert.True(t, PatientFilter{}.Matches(p))
	assert.True(t, PatientFilter{Search: "emma"}.Matches(p))
	assert.True(t, PatientFilter{Search: "JOHN"}.Matches(p))
	assert.False(t, PatientFilter{Search: "liam"}.Matches(p))
	assert.False(t, PatientFilter{Gender: GenderMale}.Matches(p))
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	all := Paginate(items, Pagination{})
	assert.Equal(t, items, all.Items)
	assert.Equal(t, 5, all.PageSize)

	second := Paginate(items, Pagination{Page: 2, PageSize: 2})
	assert.Equal(t, []int{3, 4}, second.Items)
	assert.Equal(t, 5, second.Total)

	beyond := Paginate(items, Pagination{Page: 9, PageSize: 2})
	assert.Empty(t, beyond.Items)
	assert.NotNil(t, beyond.Items)

	sizeOnly := Paginate(items, Pagination{PageSize: 2})
	assert.Equal(t, []int{1, 2}, sizeOnly.Items)
	assert.Equal(t, 1, sizeOnly.Page)
}

func TestPaginateHugePage(t *testing.T) {
	items := []int{1, 2, 3}

	for _, p := range []Pagination{
		{Page: math.MaxInt64, PageSize: 20},
		{Page: math.MaxInt64, PageSize: MaxPageSize},
		{Page: math.MaxInt64 / 2, PageSize: 3},
	} {
		var page Page[int]
		require.NotPanics(t, func() { page = Paginate(items, p) })
		assert.Empty(t, page.Items)
		assert.Equal(t, 3, page.Total)
	}

	start, end := Pagination{Page: math.MaxInt64, PageSize: 20}.Window(0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}

func TestNotificationPreferencesWants(t *testing.T) {
	p := DefaultNotificationPreferences()
	assert.True(t, p.Wants(StatusDue))
	assert.True(t, p.Wants(StatusOverdue))
	assert.False(t, p.Wants(StatusUpcoming))

	p.OverdueAlerts = false
	assert.False(t, p.Wants(StatusOverdue))

	p = DefaultNotificationPreferences()
	p.EmailNotifications = false
	assert.False(t, p.Wants(StatusDue))
}

func TestProfileOmitsPasswordHash(t *testing.T) {
	u := &User{ID: "u1", Email: "a@b.c", PasswordHash: "hash", Role: RoleAdmin}
	b, err := json.Marshal(u.Profile())
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hash")
}

func TestAgeInMonths(t *testing.T) {
	p := &Patient{DateOfBirth: NewDate(2020, time.January, 1)}
	now := time.Date(2021, time.January, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 12, p.AgeInMonths(now))
}

func TestCalendarAge(t *testing.T) {
	tests := []struct {
		name       string
		dob        Date
		now        time.Time
		wantYears  int
		wantMonths int
	}{
		{"tenth birthday", NewDate(2016, time.October, 19), time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC), 10, 120},
		{"day before birthday", NewDate(2016, time.October, 19), time.Date(2026, time.October, 18, 23, 0, 0, 0, time.UTC), 9, 120},
		{"day after birthday", NewDate(2016, time.October, 19), time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC), 10, 120},
		{"first birthday", NewDate(2023, time.March, 5), time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), 1, 12},
		{"month counts ignore the day", NewDate(2024, time.January, 31), time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), 0, 1},
		{"leap day before feb 29 in common year", NewDate(2020, time.February, 29), time.Date(2021, time.February, 28, 0, 0, 0, 0, time.UTC), 0, 12},
		{"leap day on march 1", NewDate(2020, time.February, 29), time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC), 1, 13},
		{"born in the future", NewDate(2030, time.January, 1), time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Patient{DateOfBirth: tt.dob}
			years, months := p.CalendarAge(tt.now)
			assert.Equal(t, tt.wantYears, years)
			assert.Equal(t, tt.wantMonths, months)

			view := NewPatientView(p, tt.now)
			assert.Equal(t, tt.wantYears, view.AgeYears)
			assert.Equal(t, tt.wantMonths, view.AgeMonths)
		})
	}
}

func TestPrincipalScope(t *testing.T) {
	assert.False(t, (&Principal{Role: RoleAdmin}).IsParent())
	assert.False(t, (&Principal{Role: RoleHealthcareWorker}).IsParent())
	assert.True(t, (&Principal{Role: RoleParent}).IsParent())
	assert.True(t, (&Principal{Role: "guest"}).IsParent(), "unknown roles are scoped to their own children")

	var none *Principal
	assert.False(t, none.IsParent())
}
