package audit

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cirs/cirs-api/internal/handler"
	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/service/audit"
	"github.com/cirs/cirs-api/pkg/httputil"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw handler.Middleware) {
	audit := r.Group("/admin/audit", mw.Auth.Authenticate(), mw.Auth.RequireRole(model.RoleAdmin))
	{
		audit.GET("/logs", h.ListLogs)
		audit.GET("/export", h.ExportLogs)
	}
}

func (h *Handler) ListLogs(c *gin.Context) {
	var filter model.AuditFilter
	if !httputil.BindQuery(c, &filter) {
		return
	}

	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	handler.RespondPage(c, page)
}

func (h *Handler) ExportLogs(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "json" {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("unsupported format"))
		return
	}

	var filter model.AuditFilter
	if !httputil.BindQuery(c, &filter) {
		return
	}
	filter.Pagination = model.Pagination{}

	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("audit_logs_%s.%s", time.Now().UTC().Format("20060102_150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	switch format {
	case "csv":
		c.Header("Content-Type", "text/csv")
		c.Status(http.StatusOK)
		writer := csv.NewWriter(c.Writer)
		_ = writer.Write([]string{"ID", "User ID", "Action", "Entity Type", "Entity ID", "IP Address", "Created At"})
		for _, l := range page.Items {
			_ = writer.Write([]string{
				l.ID,
				l.UserID,
				l.Action,
				l.EntityType,
				l.EntityID,
				l.IPAddress,
				l.CreatedAt.Format(time.RFC3339),
			})
		}
		writer.Flush()
	case "json":
		c.JSON(http.StatusOK, page.Items)
	}
}
