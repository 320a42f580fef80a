package audit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/repository/blob"
	"github.com/cirs/cirs-api/pkg/blobstore"
)

func newService() *Service {
	repos := blob.New(blobstore.NewMemoryStore(), "")
	return NewService(repos.Audit)
}

func TestLogAndList(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	base := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	for i, action := range []string{model.AuditActionLogin, model.AuditActionCreate, model.AuditActionCreate} {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		require.NoError(t, svc.Log(ctx, "admin-1", action, model.AuditEntityPatient, "p1", &LogOptions{
			Metadata:  map[string]string{"path": "/api/v1/patients"},
			IPAddress: "10.0.0.1",
		}))
	}

	page, err := svc.List(ctx, model.AuditFilter{Action: model.AuditActionCreate})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt), "newest first")
	assert.Equal(t, "10.0.0.1", page.Items[0].IPAddress)
	assert.JSONEq(t, `{"path":"/api/v1/patients"}`, string(page.Items[0].Metadata))

	n, err := svc.Cleanup(ctx, base.Add(90*time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestLogReadsClientFromGinContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newService()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.RemoteAddr = "192.168.1.20:5555"
	c.Request.Header.Set("User-Agent", "cirs-test")

	require.NoError(t, svc.Log(c, "u1", model.AuditActionRead, model.AuditEntityReport, "", nil))

	page, err := svc.List(context.Background(), model.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "192.168.1.20", page.Items[0].IPAddress)
	assert.Equal(t, "cirs-test", page.Items[0].UserAgent)
}

func TestAuditLoggerWritesAsynchronously(t *testing.T) {
	svc := newService()
	l := NewAuditLogger(svc)

	ctx, cancel := context.WithCancel(context.Background())
	l.Log(ctx, "u1", model.AuditActionLogout, model.AuditEntityUser, "u1", nil)
	cancel()
	l.Wait()

	page, err := svc.List(context.Background(), model.AuditFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}
