package registration

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cirs/cirs-api/internal/handler"
	"github.com/cirs/cirs-api/internal/middleware"
	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/service/registration"
	"github.com/cirs/cirs-api/pkg/httputil"
)

type Handler struct {
	service *registration.Service
}

func NewHandler(service *registration.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw handler.Middleware) {
	regs := r.Group("/admin/registrations", mw.Auth.Authenticate(), mw.Auth.RequireRole(model.RoleAdmin))
	{
		regs.GET("", h.List)
		regs.GET("/summary", h.Summary)
		regs.POST("/:id/approve", mw.Audit.Action(model.AuditActionApprove, model.AuditEntityRegistration), h.Approve)
		regs.POST("/:id/reject", mw.Audit.Action(model.AuditActionReject, model.AuditEntityRegistration), h.Reject)
	}
}

func (h *Handler) List(c *gin.Context) {
	var filter model.RegistrationFilter
	if !httputil.BindQuery(c, &filter) {
		return
	}

	regs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, regs)
}

func (h *Handler) Summary(c *gin.Context) {
	s, err := h.service.Summary(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, s)
}

func (h *Handler) Approve(c *gin.Context) {
	reg, err := h.service.Approve(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c).UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, reg)
}

func (h *Handler) Reject(c *gin.Context) {
	reg, err := h.service.Reject(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c).UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, reg)
}
