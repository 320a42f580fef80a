package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/cirs/cirs-api/pkg/errors"
	"github.com/cirs/cirs-api/pkg/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.RegisterGin()
}

func serve(t *testing.T, body string, h gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	r := gin.New()
	r.POST("/", h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestRespondWithAppError(t *testing.T) {
	w, resp := serve(t, "", func(c *gin.Context) {
		RespondWithError(c, apperrors.NotFound("patient", errors.New("no row")))
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "patient not found", resp.Message)
}

func TestRespondWithUnknownErrorHidesDetails(t *testing.T) {
	w, resp := serve(t, "", func(c *gin.Context) {
		RespondWithError(c, errors.New("pq: connection refused"))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", resp.Message)
}

func TestRespondWithBindingErrors(t *testing.T) {
	type req struct {
		Email string `json:"email" binding:"required,email"`
	}

	w, resp := serve(t, `{"email":"nope"}`, func(c *gin.Context) {
		var r req
		if err := c.ShouldBindJSON(&r); err != nil {
			RespondWithError(c, err)
			return
		}
		RespondWithSuccess(c, http.StatusOK, r)
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation failed", resp.Message)
	assert.Contains(t, w.Body.String(), `"field":"email"`)

	w, resp = serve(t, `{"email":`, func(c *gin.Context) {
		var r req
		RespondWithError(c, c.ShouldBindJSON(&r))
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "malformed request body", resp.Message)
}

func TestRespondWithPagination(t *testing.T) {
	w, resp := serve(t, "", func(c *gin.Context) {
		RespondWithPagination(c, []int{1, 2}, 2, 2, 5)
	})
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
}
