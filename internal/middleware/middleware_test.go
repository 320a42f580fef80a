package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirs/cirs-api/internal/model"
	apperrors "github.com/cirs/cirs-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubTokens map[string]*model.Principal

func (s stubTokens) ValidateToken(_ context.Context, token string) (*model.Principal, error) {
	if p, ok := s[token]; ok {
		return p, nil
	}
	return nil, apperrors.Unauthorized("invalid or expired token")
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	auth := NewAuthMiddleware(stubTokens{
		"admin":  {UserID: "admin-1", Role: model.RoleAdmin},
		"parent": {UserID: "parent-1", Role: model.RoleParent},
	})

	r := gin.New()
	r.GET("/admin", auth.Authenticate(), auth.RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).UserID+" "+c.GetString(ContextUserID))
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic admin", http.StatusUnauthorized},
		{"empty token", "Bearer  ", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer parent", http.StatusForbidden},
		{"allowed", "bearer admin", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "admin-1 admin-1", w.Body.String())
			}
		})
	}
}

func TestRequireRoleWithoutAuthenticate(t *testing.T) {
	auth := NewAuthMiddleware(stubTokens{})
	r := gin.New()
	r.GET("/", auth.RequireRole(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	w := serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))
	assert.Equal(t, "abc-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, strings.Repeat("x", 200))
	w = serve(r, req)
	assert.Len(t, w.Header().Get(HeaderXRequestID), 36)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RPS: 0.5, Burst: 2})
	r := gin.New()
	r.GET("/", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := func(ip string) *httptest.ResponseRecorder {
		rq := httptest.NewRequest(http.MethodGet, "/", nil)
		rq.RemoteAddr = ip + ":1234"
		return serve(r, rq)
	}

	assert.Equal(t, http.StatusOK, req("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, req("10.0.0.1").Code)
	w := req("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, req("10.0.0.2").Code, "buckets are per client")
}

func TestRateLimitDisabled(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})
	r := gin.New()
	r.GET("/", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestVersion(t *testing.T) {
	r := gin.New()
	r.Use(Version(DefaultVersionConfig()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusOK},
		{"1.0", http.StatusOK},
		{"v1", http.StatusBadRequest},
		{"2.0", http.StatusNotAcceptable},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Accept-Version", tt.header)
		}
		w := serve(r, req)
		assert.Equal(t, tt.want, w.Code, tt.header)
		if tt.want == http.StatusOK {
			assert.Equal(t, "1.0", w.Header().Get(HeaderAPIVersion))
		}
	}
}

func TestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(SizeLimit(SizeLimitConfig{MaxBodySize: 8, MaxHeaderSize: 64}))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("much too large")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Padding", strings.Repeat("p", 100))
	w = serve(r, req)
	assert.Equal(t, http.StatusRequestHeaderFieldsTooLarge, w.Code)
}

func TestSecurityAndCacheHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(DefaultSecurityConfig()))
	r.GET("/patients", Cache(NoStoreConfig()), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/vaccines", Cache(ReferenceDataConfig()), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/patients", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "plain http")

	req := httptest.NewRequest(http.MethodGet, "/vaccines", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = serve(r, req)
	assert.Equal(t, "private, max-age=300, must-revalidate", w.Header().Get("Cache-Control"))
	assert.Equal(t, "Authorization", w.Header().Get("Vary"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRecoveryAndErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(), ErrorHandler())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/error", func(c *gin.Context) {
		_ = c.Error(apperrors.Conflict("already done", nil))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), "boom")

	w = serve(r, httptest.NewRequest(http.MethodGet, "/error", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already done")
}
