package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cirs/cirs-api/internal/handler"
	"github.com/cirs/cirs-api/internal/handler/health"
	"github.com/cirs/cirs-api/internal/middleware"
	"github.com/cirs/cirs-api/pkg/httputil"
	"github.com/cirs/cirs-api/pkg/validator"
)

// Handler is a route group mounted under /api/v1.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup, handler.Middleware)
}

type Router struct {
	engine     *gin.Engine
	middleware handler.Middleware
	health     *health.Handler
	handlers   []Handler
	metrics    *routerMetrics
	gatherer   prometheus.Gatherer
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type RouterConfig struct {
	Mode          string
	RateLimit     float64
	RateBurst     int
	CORSConfig    middleware.CORSConfig
	SizeLimit     middleware.SizeLimitConfig
	Timeout       time.Duration
	MetricsPrefix string
	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

func NewRouter(
	mw handler.Middleware,
	healthH *health.Handler,
	handlers []Handler,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}
	if config.MetricsPrefix == "" {
		config.MetricsPrefix = "cirs_http"
	}

	validator.RegisterGin()
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	r := &Router{
		engine:     engine,
		middleware: mw,
		health:     healthH,
		handlers:   handlers,
		metrics:    initRouterMetrics(config.MetricsPrefix, config.Registerer),
		gatherer:   config.Gatherer,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
	)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httputil.NewErrorResponse("route not found"))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, httputil.NewErrorResponse("method not allowed"))
	})

	r.setup(config)
	return r
}

func (r *Router) setup(config RouterConfig) {
	r.health.RegisterRoutes(r.engine)
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	sizeLimit := config.SizeLimit
	if sizeLimit.MaxBodySize <= 0 {
		sizeLimit = middleware.DefaultSizeLimitConfig()
	}
	timeout := middleware.DefaultTimeoutConfig()
	if config.Timeout > 0 {
		timeout.Duration = config.Timeout
	}

	api := r.engine.Group("/api/v1")
	api.Use(
		middleware.Version(middleware.DefaultVersionConfig()),
		middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   config.RateLimit,
			Burst: config.RateBurst,
		}).RateLimit(),
		middleware.SizeLimit(sizeLimit),
		middleware.Timeout(timeout),
		middleware.Cache(middleware.NoStoreConfig()),
	)

	for _, h := range r.handlers {
		h.RegisterRoutes(api, r.middleware)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string, reg prometheus.Registerer) *routerMetrics {
	f := promauto.With(reg)
	return &routerMetrics{
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Unmatched paths share one label to keep cardinality bounded.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		switch {
		case c.Writer.Status() >= 500:
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "server").Inc()
		case c.Writer.Status() >= 400:
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "client").Inc()
		}
	}
}
