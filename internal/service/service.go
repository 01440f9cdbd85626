package service

import (
	"log/slog"

	"lostfound/internal/config"
	"lostfound/internal/repository"
	"lostfound/internal/storage"
)

type Service struct {
	Auth         AuthService
	Item         ItemService
	Follow       FollowService
	Message      MessageService
	Notification NotificationService
}

// Deps are the collaborators shared by the services.
type Deps struct {
	Repo     *repository.Repository
	Config   *config.Config
	Images   storage.ImageStore
	Mailer   Mailer
	Notifier Notifier
	Logger   *slog.Logger
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Mailer == nil {
		d.Mailer = NewLogMailer(d.Logger, d.Config.BaseURL)
	}
	if d.Notifier == nil {
		d.Notifier = PollingNotifier{}
	}

	return &Service{
		Auth:         NewAuthService(d.Repo.User, d.Mailer, d.Config, d.Logger),
		Item:         NewItemService(d.Repo.Item, d.Images, d.Config, d.Logger),
		Follow:       NewFollowService(d.Repo.Follow, d.Repo.Item),
		Message:      NewMessageService(d.Repo.Message, d.Repo.User, d.Repo.Item, d.Notifier, d.Logger),
		Notification: NewNotificationService(d.Repo.Message),
	}
}
