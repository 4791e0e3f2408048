package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/devconnect/backend/internal/auth"
	"github.com/anonto42/devconnect/backend/internal/handlers"
	"github.com/anonto42/devconnect/backend/internal/repositories"
	"github.com/anonto42/devconnect/backend/internal/router"
	"github.com/anonto42/devconnect/backend/internal/validators"
	"github.com/anonto42/devconnect/backend/pkg/config"
	"github.com/anonto42/devconnect/backend/pkg/firebase"
	"github.com/anonto42/devconnect/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	log := logger.NewLogger(cfg.AppName, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize databases")
	}
	defer db.CloseDB()

	posts := repositories.NewMongoPostRepository(db.Database)
	profiles := repositories.NewMongoProfileRepository(db.Database)
	var users repositories.UserRepository = repositories.NewMongoUserRepository(db.Database)
	if db.Postgres != nil {
		users = repositories.NewPostgresUserRepository(db.Postgres)
	}
	// Mongo may still be unreachable here; keep trying in the background and
	// report unhealthy until the unique indexes exist.
	indexes := repositories.NewIndexBuilder(log, cfg.MongoConnectRetryDelay, posts, profiles, users)
	go func() {
		if err := indexes.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Index build stopped")
		}
	}()

	verifier, err := newVerifier(ctx, cfg, users, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize token verification")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler(log, e.DefaultHTTPErrorHandler)

	router.SetupMiddleware(e, cfg, log)
	router.SetupRoutes(e, router.Dependencies{
		Config:   cfg,
		Logger:   log,
		Posts:    posts,
		Profiles: profiles,
		Users:    users,
		Verifier: verifier,
		Health:   handlers.Pingers{db, indexes},
		Redis:    rdb,
	})

	go func() {
		log.WithField("port", cfg.Port).Info("Server running")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server error")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
	log.Info("Server stopped")
}

func newVerifier(ctx context.Context, cfg *config.Config, users repositories.UserRepository, log *logrus.Logger) (auth.Verifier, error) {
	if cfg.AuthProvider == "firebase" {
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, log)
		if err != nil {
			return nil, err
		}
		return auth.NewFirebaseVerifier(app.AuthClient, users), nil
	}
	return auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
}
