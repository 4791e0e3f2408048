package router

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/devconnect/backend/internal/auth"
	"github.com/anonto42/devconnect/backend/internal/handlers"
	"github.com/anonto42/devconnect/backend/internal/metrics"
	"github.com/anonto42/devconnect/backend/internal/middleware"
	"github.com/anonto42/devconnect/backend/internal/repositories"
	"github.com/anonto42/devconnect/backend/pkg/config"
)

// Dependencies are the collaborators the routes are wired to.
type Dependencies struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Posts    repositories.PostRepository
	Profiles repositories.ProfileRepository
	Users    repositories.UserRepository
	Verifier auth.Verifier
	Health   handlers.Pinger
	Redis    *redis.Client // optional, enables rate limiting of writes
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, cfg *config.Config, logger *logrus.Logger) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.RequestIDWithConfig(eMiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(logger))
	if cfg.MetricsEnabled {
		e.Use(metrics.Middleware())
	}
	e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{AllowOrigins: cfg.CORSAllowedOrigins}))
	e.Use(eMiddleware.BodyLimit("1M"))
	e.Use(eMiddleware.ContextTimeoutWithConfig(eMiddleware.ContextTimeoutConfig{Timeout: cfg.RequestTimeout}))
	logger.Debug("Global middleware configured")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	log := deps.Logger

	e.GET("/health", handlers.HealthCheck(deps.Health))
	if deps.Config.MetricsEnabled {
		e.GET("/metrics", metrics.Handler())
	}

	requireAuth := []echo.MiddlewareFunc{
		middleware.Auth(deps.Verifier),
		middleware.RateLimit(deps.Redis, deps.Config.RateLimitPerMinute, time.Minute, log),
	}

	api := e.Group("/api")

	userHandler := handlers.NewUserHandler(deps.Users)
	userHandler.RegisterUserRoutes(api, requireAuth...)
	log.Debug("User routes configured")

	profileHandler := handlers.NewProfileHandler(deps.Profiles, deps.Users, deps.Posts, log)
	profileHandler.RegisterProfileRoutes(api, requireAuth...)
	log.Debug("Profile routes configured")

	postHandler := handlers.NewPostHandler(deps.Posts, deps.Users)
	postHandler.RegisterPostRoutes(api, requireAuth...)
	log.Debug("Post routes configured")

	log.WithField("routes", len(e.Routes())).Info("All routes configured")
}
