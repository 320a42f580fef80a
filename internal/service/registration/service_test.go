package registration

import (
	"context"
	"errors"
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

type recordingMailer struct {
	welcomed []string
	rejected []string
	fail     bool
}

func (m *recordingMailer) SendWelcome(_ context.Context, to, _ string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.welcomed = append(m.welcomed, to)
	return nil
}

func (m *recordingMailer) SendRegistrationRejected(_ context.Context, to, _ string) error {
	m.rejected = append(m.rejected, to)
	return nil
}

func (m *recordingMailer) SendPasswordReset(context.Context, string, string) error { return nil }
func (m *recordingMailer) SendReminder(context.Context, model.Reminder) error     { return nil }
func (m *recordingMailer) SendCustom(context.Context, string, string, string) error {
	return nil
}

var now = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *blob.Repositories, *recordingMailer) {
	t.Helper()
	ctx := context.Background()
	repos := blob.New(blobstore.NewMemoryStore(), "")

	regs := []*model.PendingRegistration{
		{ID: "pending-1", Email: "jane.doe@email.com", PasswordHash: "hash-1", FullName: "Jane Doe", Role: model.RoleParent, Status: model.RegistrationPending, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "pending-2", Email: "dr.brown@hospital.com", PasswordHash: "hash-2", FullName: "Dr. Michael Brown", Role: model.RoleHealthcareWorker, Status: model.RegistrationPending, CreatedAt: now.Add(-24 * time.Hour)},
		{ID: "old", Email: "old@email.com", PasswordHash: "hash-3", FullName: "Old", Role: model.RoleParent, Status: model.RegistrationRejected, CreatedAt: now.Add(-72 * time.Hour)},
	}
	for _, r := range regs {
		require.NoError(t, repos.Registrations.Create(ctx, r))
	}

	mailer := &recordingMailer{}
	svc := NewService(repos.Registrations, repos.Users, mailer, event.NewService(repos.Outbox))
	svc.now = func() time.Time { return now }
	return svc, repos, mailer
}

func TestListNewestFirstAndFiltered(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	all, err := svc.List(ctx, model.RegistrationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "pending-2", all[0].ID)
	assert.Equal(t, "old", all[2].ID)

	pending, err := svc.List(ctx, model.RegistrationFilter{Status: model.RegistrationPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationSummary{Pending: 2, Rejected: 1}, *summary)
}

func TestApproveCreatesUser(t *testing.T) {
	svc, repos, mailer := setup(t)
	ctx := context.Background()

	view, err := svc.Approve(ctx, "pending-1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationApproved, view.Status)
	require.NotNil(t, view.ReviewedBy)
	assert.Equal(t, "admin-1", *view.ReviewedBy)
	assert.Equal(t, now, *view.ReviewedAt)

	u, err := repos.Users.GetByEmail(ctx, "jane.doe@email.com")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", u.PasswordHash, "the sign-up password carries over")
	assert.Equal(t, model.RoleParent, u.Role)
	assert.Equal(t, []string{"jane.doe@email.com"}, mailer.welcomed)

	_, err = svc.Approve(ctx, "pending-1", "admin-1")
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Equal(t, "registration has already been approved", appErr.Message)

	_, err = svc.Reject(ctx, "pending-1", "admin-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestApproveRevertsWhenEmailIsTaken(t *testing.T) {
	svc, repos, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, repos.Users.Create(ctx, &model.User{ID: "u1", Email: "Dr.Brown@hospital.com", Role: model.RoleHealthcareWorker}))

	_, err := svc.Approve(ctx, "pending-2", "admin-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	reg, err := repos.Registrations.Get(ctx, "pending-2")
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationPending, reg.Status)
	assert.Nil(t, reg.ReviewedBy)
}

func TestApproveSucceedsWhenWelcomeEmailFails(t *testing.T) {
	svc, _, mailer := setup(t)
	mailer.fail = true

	view, err := svc.Approve(context.Background(), "pending-2", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationApproved, view.Status)
}

func TestRejectDoesNotCreateUser(t *testing.T) {
	svc, repos, mailer := setup(t)
	ctx := context.Background()

	view, err := svc.Reject(ctx, "pending-2", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationRejected, view.Status)
	assert.Equal(t, []string{"dr.brown@hospital.com"}, mailer.rejected)

	users, err := repos.Users.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	events, err := repos.Outbox.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventRegistrationRejected, events[0].EventType)
}

func TestReviewUnknownRegistration(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.Approve(context.Background(), "missing", "admin-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
