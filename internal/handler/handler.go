package handlers

import (
	"context"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"lostfound/internal/config"
	"lostfound/internal/service"
)

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Handlers struct {
	AuthService         service.AuthService
	ItemService         service.ItemService
	FollowService       service.FollowService
	MessageService      service.MessageService
	NotificationService service.NotificationService
	DB                  HealthChecker
	Cfg                 *config.Config
	Validate            *validator.Validate
	Logger              *slog.Logger
}

func NewHandlers(services *service.Service, db HealthChecker, cfg *config.Config, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Handlers{
		AuthService:         services.Auth,
		ItemService:         services.Item,
		FollowService:       services.Follow,
		MessageService:      services.Message,
		NotificationService: services.Notification,
		DB:                  db,
		Cfg:                 cfg,
		Validate:            validate,
		Logger:              logger,
	}
}
