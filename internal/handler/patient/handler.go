package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cirs/cirs-api/internal/handler"
	"github.com/cirs/cirs-api/internal/middleware"
	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/internal/service/patient"
	"github.com/cirs/cirs-api/internal/service/vaccination"
	"github.com/cirs/cirs-api/pkg/httputil"
)

type Handler struct {
	service      *patient.Service
	vaccinations *vaccination.Service
}

func NewHandler(service *patient.Service, vaccinations *vaccination.Service) *Handler {
	return &Handler{service: service, vaccinations: vaccinations}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, mw handler.Middleware) {
	patients := r.Group("/patients", mw.Auth.Authenticate())
	{
		patients.GET("", mw.Auth.RequireRole(handler.Clinical...), h.ListPatients)
		patients.GET("/mine", mw.Auth.RequireRole(model.RoleParent), h.ListChildren)
		patients.GET("/:id", mw.Auth.RequireRole(handler.AllRoles...), h.GetPatient)
		patients.GET("/:id/vaccinations", mw.Auth.RequireRole(handler.AllRoles...), h.ListVaccinations)

		write := patients.Group("", mw.Audit.AuditLog(model.AuditEntityPatient))
		write.POST("", mw.Auth.RequireRole(handler.Clinical...), h.CreatePatient)
		write.PUT("/:id", mw.Auth.RequireRole(handler.Clinical...), h.UpdatePatient)
		write.DELETE("/:id", mw.Auth.RequireRole(model.RoleAdmin), h.DeletePatient)
		write.POST("/:id/schedule", mw.Auth.RequireRole(handler.Clinical...), h.Schedule)
	}
}

func (h *Handler) ListPatients(c *gin.Context) {
	var filter model.PatientFilter
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

// ListChildren returns the patients linked to the calling parent.
func (h *Handler) ListChildren(c *gin.Context) {
	children, err := h.service.ListForParent(c.Request.Context(), middleware.CurrentUser(c).UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, children)
}

func (h *Handler) GetPatient(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) ListVaccinations(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	id := c.Param("id")

	// Resolves visibility first so parents get 404 for other families.
	if _, err := h.service.Get(c.Request.Context(), caller, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	page, err := h.vaccinations.List(c.Request.Context(), caller, model.VaccinationFilter{PatientID: id})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, page.Items)
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, p)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	var req model.UpdatePatientRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) DeletePatient(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "patient deleted")
}

// Schedule creates the records the patient is still missing.
func (h *Handler) Schedule(c *gin.Context) {
	created, err := h.vaccinations.Schedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, created)
}
