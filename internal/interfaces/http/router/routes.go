package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/statload/backend/internal/infrastructure/config"
	"github.com/statload/backend/internal/infrastructure/logger"
	"github.com/statload/backend/internal/interfaces/http/handler"
	"github.com/statload/backend/internal/interfaces/http/middleware"
)

// Handlers groups the HTTP handlers of the API
type Handlers struct {
	System   *handler.SystemHandler
	Auth     *handler.AuthHandler
	Eurostat *handler.EurostatHandler
	Istat    *handler.IstatHandler
	Jobs     *handler.JobHandler
}

// EngineConfig holds what NewEngine needs from the configuration
type EngineConfig struct {
	Env     string
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
}

// NewEngine creates the gin engine with the middleware stack, in order:
// request ID, recovery, request logging, tracing, security headers, CORS,
// body limit and rate limit. The returned func releases the rate limiter.
func NewEngine(cfg EngineConfig, log *zap.Logger) (*gin.Engine, func()) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(cfg.Tracing))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.SecureWithConfig(middleware.DefaultSecurityConfig()))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	release := func() {}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
		release = limiter.Stop
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	return engine, release
}

// RegisterRoutes mounts the API. authRequired guards the routes that
// start downloads.
func RegisterRoutes(engine *gin.Engine, h Handlers, authRequired gin.HandlerFunc) {
	engine.GET("/health", h.System.Health)

	protected := []gin.HandlerFunc{authRequired, middleware.SpanAttributes()}
	guard := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, protected...), fn)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", h.Auth.Login)

	eurostatRoutes := NewDomainGroup("eurostat", "/eurostat")
	eurostatRoutes.GET("/views", h.Eurostat.ListViews)
	eurostatRoutes.GET("/views/browse/*path", h.Eurostat.Browse)
	eurostatRoutes.POST("/views/:code/refresh", guard(h.Eurostat.Refresh)...)
	eurostatRoutes.GET("/datasets", h.Eurostat.ListDatasets)
	eurostatRoutes.POST("/datasets/:code/download", guard(h.Eurostat.Download)...)

	istatRoutes := NewDomainGroup("istat", "/istat")
	istatRoutes.GET("/categories", h.Istat.ListCategories)
	istatRoutes.GET("/categories/:id/dataflows", h.Istat.ListDataflows)
	istatRoutes.GET("/views", h.Istat.ListViews)

	jobRoutes := NewDomainGroup("jobs", "/jobs")
	jobRoutes.GET("/:id", h.Jobs.GetJob)

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", h.System.GetSystemInfo)

	r.Register(authRoutes).
		Register(eurostatRoutes).
		Register(istatRoutes).
		Register(jobRoutes).
		Register(systemRoutes)
	r.Setup()
}

// RegisterDocs serves the API documentation under /swagger behind
// SwaggerProtection. The docs package must be linked in by the caller.
func RegisterDocs(engine *gin.Engine, cfg config.SwaggerConfig, authRequired gin.HandlerFunc) {
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg, authRequired),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)
}
