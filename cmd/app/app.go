package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"lostfound/internal/config"
	"lostfound/internal/database"
	handlers "lostfound/internal/handler"
	"lostfound/internal/middleware"
	"lostfound/internal/repository"
	"lostfound/internal/router"
	"lostfound/internal/service"
	"lostfound/internal/storage"
)

// App holds the wired dependencies of a running server.
type App struct {
	DB      *database.DB
	Redis   *database.Redis
	Repo    *repository.Repository
	Service *service.Service
	Handler http.Handler
}

// New connects every backing store and builds the HTTP handler.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.JWTSecretKey == "" {
		return nil, errors.New("JWT_SECRET_KEY is not set")
	}

	db, err := database.ConnectDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrations(ctx, logger); err != nil {
		db.CloseDB()
		return nil, err
	}

	a := &App{DB: db}

	// rate limiting is optional; without Redis every request passes
	var limiter middleware.Counter
	if cfg.Redis.Enabled() {
		a.Redis, err = database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		limiter = a.Redis
		logger.Info("rate limiting enabled", "addr", cfg.Redis.Addr, "per_minute", cfg.RateLimitPerMinute)
	}

	images, err := storage.NewMinIOStore(ctx, cfg.MinIO)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initializing MinIO: %w", err)
	}

	a.Repo = repository.NewRepository(db.DB)
	a.Service = service.NewService(service.Deps{
		Repo:   a.Repo,
		Config: cfg,
		Images: images,
		Logger: logger,
	})

	h := handlers.NewHandlers(a.Service, db, cfg, logger)
	a.Handler = router.New(h, cfg, router.Options{Limiter: limiter, Logger: logger})

	return a, nil
}

// Migrate applies the embedded migrations and reports tables still missing.
func Migrate(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.ConnectDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	if err := db.RunMigrations(ctx, logger); err != nil {
		return err
	}

	schema := repository.NewSchemaRepository(db.DB)
	missing, err := schema.MissingTables(ctx)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema incomplete, missing tables: %v", missing)
	}

	count, err := schema.CountTables(ctx)
	if err != nil {
		return err
	}
	logger.Info("schema ready", "tables", count)
	return nil
}

func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.CloseDB()
	}
}
