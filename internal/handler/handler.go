package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cirs/cirs-api/internal/middleware"
	"github.com/cirs/cirs-api/internal/model"
	"github.com/cirs/cirs-api/pkg/httputil"
)

// Middleware is what route groups need to guard and audit their routes.
type Middleware struct {
	Auth  *middleware.AuthMiddleware
	Audit *middleware.AuditMiddleware
}

// Clinical lists the roles that manage patient data.
var Clinical = []model.Role{model.RoleAdmin, model.RoleHealthcareWorker}

// AllRoles lists every signed-in role.
var AllRoles = []model.Role{model.RoleAdmin, model.RoleHealthcareWorker, model.RoleParent}

// RespondPage sends a plain list when no page was requested and a paginated
// envelope otherwise.
func RespondPage[T any](c *gin.Context, p model.Page[T]) {
	if p.Page == 0 {
		httputil.RespondWithSuccess(c, http.StatusOK, p.Items)
		return
	}
	httputil.RespondWithPagination(c, p.Items, p.Page, p.PageSize, p.Total)
}
