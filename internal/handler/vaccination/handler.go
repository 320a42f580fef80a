package vaccination

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cirs/cirs-api/internal/handler"
	"github.com/cirs/cirs-api/internal/middleware"
	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/service/vaccination"
	"github.com/cirs/cirs-api/pkg/httputil"
)

type Handler struct {
	service *vaccination.Service
}

func NewHandler(service *vaccination.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw handler.Middleware) {
	records := r.Group("/vaccinations", mw.Auth.Authenticate())
	{
		records.GET("", mw.Auth.RequireRole(handler.AllRoles...), h.List)
		records.GET("/:id", mw.Auth.RequireRole(handler.AllRoles...), h.Get)

		write := records.Group("", mw.Auth.RequireRole(handler.Clinical...), mw.Audit.AuditLog(model.AuditEntityVaccination))
		write.POST("", h.Create)
		write.PUT("/:id", h.Update)
		write.POST("/:id/administer", h.Administer)
		write.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	var filter model.VaccinationFilter
	if !httputil.BindQuery(c, &filter) {
		return
	}

	page, err := h.service.List(c.Request.Context(), middleware.CurrentUser(c), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	handler.RespondPage(c, page)
}

func (h *Handler) Get(c *gin.Context) {
	v, err := h.service.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, v)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateVaccinationRequest
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

func (h *Handler) Update(c *gin.Context) {
	var req model.UpdateVaccinationRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	v, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, v)
}

// Administer accepts an empty body: the date defaults to today and the
// administrator to the caller.
func (h *Handler) Administer(c *gin.Context) {
	var req model.AdministerRequest
	if c.Request.ContentLength != 0 && !httputil.BindJSON(c, &req) {
		return
	}

	v, err := h.service.Administer(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, v)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "vaccination record deleted")
}
