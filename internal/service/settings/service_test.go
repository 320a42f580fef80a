package settings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository/blob"
	"github.com/cirs/cirs-api/pkg/blobstore"
	apperrors "github.com/cirs/cirs-api/pkg/errors"
	"github.com/cirs/cirs-api/pkg/security"
)

type resetMailer struct {
	sent []string
	err  error
}

func (m *resetMailer) SendWelcome(context.Context, string, string) error              { return nil }
func (m *resetMailer) SendRegistrationRejected(context.Context, string, string) error { return nil }
func (m *resetMailer) SendReminder(context.Context, model.Reminder) error             { return nil }
func (m *resetMailer) SendCustom(context.Context, string, string, string) error       { return nil }

func (m *resetMailer) SendPasswordReset(_ context.Context, to, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

var now = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *blob.Repositories, *resetMailer) {
	t.Helper()
	repos := blob.New(blobstore.NewMemoryStore(), "")
	hasher := security.NewBcryptHasher(4)

	hash, err := hasher.Hash("parent123")
	require.NoError(t, err)
	require.NoError(t, repos.Users.Create(context.Background(), &model.User{
		ID: "parent-1", Email: "parent@cirs.demo", PasswordHash: hash, Role: model.RoleParent, FullName: "John Smith",
	}))

	mailer := &resetMailer{}
	svc := NewService(repos.Users, repos.Settings, hasher, mailer, Info{Application: "cirs-api", Version: "test", StoreDriver: "memory"})
	svc.now = func() time.Time { return now }
	return svc, repos, mailer
}

func TestProfile(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	p, err := svc.UpdateProfile(ctx, "parent-1", model.UpdateProfileRequest{FullName: "  John A. Smith "})
	require.NoError(t, err)
	assert.Equal(t, "John A. Smith", p.FullName)

	p, err = svc.GetProfile(ctx, "parent-1")
	require.NoError(t, err)
	assert.Equal(t, "John A. Smith", p.FullName)

	_, err = svc.UpdateProfile(ctx, "parent-1", model.UpdateProfileRequest{FullName: " J "})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	_, err = svc.GetProfile(ctx, "ghost")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestNotificationsDefaultAndPartialUpdate(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	st, err := svc.GetNotifications(ctx, "parent-1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultNotificationPreferences(), st.NotificationPreferences)

	off := false
	on := true
	_, err = svc.UpdateNotifications(ctx, "parent-1", model.UpdateNotificationsRequest{OverdueAlerts: &off, WeeklyReports: &on})
	require.NoError(t, err)

	st, err = svc.GetNotifications(ctx, "parent-1")
	require.NoError(t, err)
	assert.True(t, st.EmailNotifications)
	assert.True(t, st.VaccinationReminders)
	assert.False(t, st.OverdueAlerts)
	assert.True(t, st.WeeklyReports)
	assert.Equal(t, now, st.UpdatedAt)
}

func TestConcurrentPartialUpdatesKeepEveryField(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	off, on := false, true

	requests := []model.UpdateNotificationsRequest{
		{EmailNotifications: &off},
		{VaccinationReminders: &off},
		{OverdueAlerts: &off},
		{WeeklyReports: &on},
	}

	var wg sync.WaitGroup
	for _, req := range requests {
		wg.Add(1)
		go func(req model.UpdateNotificationsRequest) {
			defer wg.Done()
			_, err := svc.UpdateNotifications(ctx, "parent-1", req)
			assert.NoError(t, err)
		}(req)
	}
	wg.Wait()

	st, err := svc.GetNotifications(ctx, "parent-1")
	require.NoError(t, err)
	assert.Equal(t, model.NotificationPreferences{
		EmailNotifications:   false,
		VaccinationReminders: false,
		OverdueAlerts:        false,
		WeeklyReports:        true,
	}, st.NotificationPreferences)
}

func TestChangePassword(t *testing.T) {
	svc, repos, _ := setup(t)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, "parent-1", model.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "secret99"})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "current password is incorrect", appErr.Message)

	require.NoError(t, svc.ChangePassword(ctx, "parent-1", model.ChangePasswordRequest{CurrentPassword: "parent123", NewPassword: "secret99"}))

	u, err := repos.Users.Get(ctx, "parent-1")
	require.NoError(t, err)
	assert.NoError(t, security.NewBcryptHasher(4).Compare(u.PasswordHash, "secret99"))
}

func TestRequestPasswordReset(t *testing.T) {
	svc, _, mailer := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestPasswordReset(ctx, "parent-1"))
	assert.Equal(t, []string{"parent@cirs.demo"}, mailer.sent)

	mailer.err = errors.New("smtp down")
	err := svc.RequestPasswordReset(ctx, "parent-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnavailable))
}

func TestSystem(t *testing.T) {
	svc, _, _ := setup(t)

	info := svc.System()
	assert.Equal(t, "cirs-api", info.Application)
	assert.Equal(t, "memory", info.StoreDriver)
	assert.Equal(t, now, info.ServerTime)
}
