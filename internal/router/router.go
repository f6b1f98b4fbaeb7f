package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
)

type Handler interface {
	RegisterRoutes(gin.IRouter)
}

// Handlers groups the API handlers. Health stays outside authentication.
type Handlers struct {
	Health      Handler
	Clinic      Handler
	Clinician   Handler
	Patient     Handler
	Appointment Handler
	Billing     Handler
	Medical     Handler
	Audit       Handler
}

type RouterConfig struct {
	// Auth is nil when no JWT secret is configured.
	Auth          *middleware.AuthMiddleware
	RateLimit     rate.Limit
	RateBurst     int
	RateEnabled   bool
	MaxBodyBytes  int64
	MetricsPrefix string
	Registerer    prometheus.Registerer
	Gatherer      prometheus.Gatherer
	Logger        zerolog.Logger
}

type Router struct {
	engine   *gin.Engine
	handlers Handlers
	config   RouterConfig
}

func NewRouter(handlers Handlers, config RouterConfig) *Router {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 1 << 20
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(config.Logger),
		middleware.NewHTTPMetrics(config.MetricsPrefix, config.Registerer).Middleware(),
		middleware.SizeLimit(config.MaxBodyBytes),
	)
	if config.RateEnabled {
		engine.Use(middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		}).RateLimit())
	}

	return &Router{
		engine:   engine,
		handlers: handlers,
		config:   config,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.config.Gatherer, promhttp.HandlerOpts{})))
	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(r.engine)
	}

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})
	if r.config.Auth != nil {
		api.Use(r.config.Auth.Authenticate())
	}

	for _, h := range []Handler{
		r.handlers.Clinic,
		r.handlers.Clinician,
		r.handlers.Patient,
		r.handlers.Appointment,
		r.handlers.Billing,
		r.handlers.Medical,
		r.handlers.Audit,
	} {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
