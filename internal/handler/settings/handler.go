package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cirs/cirs-api/internal/handler"
	"github.com/cirs/cirs-api/internal/middleware"
	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/service/settings"
	"github.com/cirs/cirs-api/pkg/httputil"
)

type Handler struct {
	service *settings.Service
}

func NewHandler(service *settings.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw handler.Middleware) {
	s := r.Group("/settings", mw.Auth.Authenticate(), mw.Auth.RequireRole(handler.AllRoles...))
	{
		s.GET("/profile", h.GetProfile)
		s.GET("/notifications", h.GetNotifications)
		s.GET("/system", h.System)

		write := s.Group("", mw.Audit.AuditLog(model.AuditEntitySettings))
		write.PUT("/profile", h.UpdateProfile)
		write.PUT("/notifications", h.UpdateNotifications)
		write.POST("/password", h.ChangePassword)
		write.POST("/password/reset", h.RequestPasswordReset)
	}
}

func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.service.GetProfile(c.Request.Context(), middleware.CurrentUser(c).UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	p, err := h.service.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c).UserID, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) GetNotifications(c *gin.Context) {
	st, err := h.service.GetNotifications(c.Request.Context(), middleware.CurrentUser(c).UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, st)
}

func (h *Handler) UpdateNotifications(c *gin.Context) {
	var req model.UpdateNotificationsRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	st, err := h.service.UpdateNotifications(c.Request.Context(), middleware.CurrentUser(c).UserID, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, st)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), middleware.CurrentUser(c).UserID, req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "password updated")
}

func (h *Handler) RequestPasswordReset(c *gin.Context) {
	if err := h.service.RequestPasswordReset(c.Request.Context(), middleware.CurrentUser(c).UserID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "password reset email sent")
}

func (h *Handler) System(c *gin.Context) {
	httputil.RespondWithSuccess(c, http.StatusOK, h.service.System())
}
