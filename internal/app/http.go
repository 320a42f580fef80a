package app

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cirs/cirs-api/internal/handler"
	auditHandler "github.com/cirs/cirs-api/internal/handler/audit"
	authHandler "github.com/cirs/cirs-api/internal/handler/auth"
	dashboardHandler "github.com/cirs/cirs-api/internal/handler/dashboard"
	"github.com/cirs/cirs-api/internal/handler/health"
	patientHandler "github.com/cirs/cirs-api/internal/handler/patient"
	registrationHandler "github.com/cirs/cirs-api/internal/handler/registration"
	reportHandler "github.com/cirs/cirs-api/internal/handler/report"
	settingsHandler "github.com/cirs/cirs-api/internal/handler/settings"
	vaccinationHandler "github.com/cirs/cirs-api/internal/handler/vaccination"
	vaccineHandler "github.com/cirs/cirs-api/internal/handler/vaccine"
	"github.com/cirs/cirs-api/internal/middleware"
	"github.com/cirs/cirs-api/internal/router"
)

// NewRouter mounts every HTTP handler. Router metrics go to reg and /metrics
// serves gatherer.
func (a *App) NewRouter(reg prometheus.Registerer, gatherer prometheus.Gatherer) *router.Router {
	cfg := a.Config
	svcs := a.Services

	mw := handler.Middleware{
		Auth:  middleware.NewAuthMiddleware(svcs.Auth),
		Audit: middleware.NewAuditMiddleware(a.AuditLogger),
	}

	handlers := []router.Handler{
		authHandler.NewHandler(svcs.Auth),
		dashboardHandler.NewHandler(svcs.Dashboard),
		patientHandler.NewHandler(svcs.Patients, svcs.Vaccinations),
		vaccinationHandler.NewHandler(svcs.Vaccinations),
		vaccineHandler.NewHandler(svcs.Vaccines),
		reportHandler.NewHandler(svcs.Reports),
		registrationHandler.NewHandler(svcs.Registrations),
		settingsHandler.NewHandler(svcs.Settings),
		auditHandler.NewHandler(svcs.Audit),
	}

	mode := cfg.Server.Mode
	if mode == "" && cfg.Production() {
		mode = gin.ReleaseMode
	}

	return router.NewRouter(mw, health.NewHandler(a.Store, cfg.Store.Driver), handlers, router.RouterConfig{
		Mode:       mode,
		RateLimit:  cfg.Security.RateLimit,
		RateBurst:  cfg.Security.RateBurst,
		CORSConfig: cfg.ToCORSConfig(),
		SizeLimit: middleware.SizeLimitConfig{
			MaxBodySize:   cfg.Server.MaxBodySize,
			MaxHeaderSize: middleware.DefaultSizeLimitConfig().MaxHeaderSize,
		},
		Timeout:    cfg.Server.Timeout,
		Registerer: reg,
		Gatherer:   gatherer,
	})
}
