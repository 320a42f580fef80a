package report

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cirs/cirs-api/internal/handler"
	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/service/report"
	"github.com/cirs/cirs-api/pkg/httputil"
)

type Handler struct {
	service *report.Service
}

func NewHandler(service *report.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw handler.Middleware) {
	reports := r.Group("/reports", mw.Auth.Authenticate(), mw.Auth.RequireRole(handler.Clinical...))
	{
		reports.GET("", h.Get)
		reports.GET("/export", h.Download)
		reports.POST("/export", mw.Audit.AuditLog(model.AuditEntityReport), h.Upload)
	}
}

func (h *Handler) Get(c *gin.Context) {
	r, err := h.service.Build(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, r)
}

// Download sends the report as a JSON file attachment.
func (h *Handler) Download(c *gin.Context) {
	data, name, err := h.service.Export(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/json", data)
}

// Upload stores the report in object storage.
func (h *Handler) Upload(c *gin.Context) {
	res, err := h.service.Upload(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, res)
}
