package vaccine

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cirs/cirs-api/internal/handler"
	"github.com/cirs/cirs-api/internal/middleware"
	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/service/vaccine"
	"github.com/cirs/cirs-api/pkg/httputil"
)

type Handler struct {
	service *vaccine.Service
}

func NewHandler(service *vaccine.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw handler.Middleware) {
	vaccines := r.Group("/vaccines", mw.Auth.Authenticate(), mw.Auth.RequireRole(handler.AllRoles...))
	{
		read := vaccines.Group("", middleware.Cache(middleware.ReferenceDataConfig()))
		read.GET("", h.List)
		read.GET("/:id", h.Get)

		vaccines.POST("", mw.Auth.RequireRole(model.RoleAdmin), mw.Audit.AuditLog(model.AuditEntityVaccine), h.Create)
	}
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	v, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, v)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateVaccineRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	v, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, v)
}
