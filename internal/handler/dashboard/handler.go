package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cirs/cirs-api/internal/handler"
	"github.com/cirs/cirs-api/internal/middleware"
	"github.com/cirs/cirs-api/internal/service/dashboard"
	"github.com/cirs/cirs-api/pkg/httputil"
)

type Handler struct {
	service *dashboard.Service
}

func NewHandler(service *dashboard.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw handler.Middleware) {
	r.GET("/dashboard", mw.Auth.Authenticate(), mw.Auth.RequireRole(handler.AllRoles...), h.Get)
}

func (h *Handler) Get(c *gin.Context) {
	d, err := h.service.Get(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, d)
}
