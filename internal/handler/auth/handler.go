package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cirs/cirs-api/internal/handler"
	"github.com/cirs/cirs-api/internal/middleware"
	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/service/auth"
	"github.com/cirs/cirs-api/pkg/httputil"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw handler.Middleware) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", mw.Audit.Action(model.AuditActionLogin, model.AuditEntityUser), h.Login)
		auth.POST("/signup", h.SignUp)
		auth.POST("/logout", mw.Auth.Authenticate(), mw.Audit.Action(model.AuditActionLogout, model.AuditEntityUser), h.Logout)
		auth.GET("/me", mw.Auth.Authenticate(), h.Me)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Set(middleware.ContextUserID, tokens.User.ID)
	httputil.RespondWithSuccess(c, http.StatusOK, tokens)
}

// SignUp queues a registration for admin review; it does not sign the user in.
func (h *Handler) SignUp(c *gin.Context) {
	var req model.SignUpRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	reg, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, &httputil.Response{
		Status:  "success",
		Message: "registration submitted, an administrator will review it",
		Data:    reg,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.CurrentUser(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "logged out successfully")
}

func (h *Handler) Me(c *gin.Context) {
	profile, err := h.svc.Me(c.Request.Context(), middleware.CurrentUser(c).UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, profile)
}
