package service

import (
	"context"

	"lostfound/internal/models"
	"lostfound/internal/repository"
)

// Notifier is told about message state changes. Clients poll the unread
// counter, so the default implementation does nothing.
type Notifier interface {
	MessageSent(ctx context.Context, msg *models.Message) error
	MessagesRead(ctx context.Context, recipientID, senderID string, count int64) error
}

type PollingNotifier struct{}

func (PollingNotifier) MessageSent(context.Context, *models.Message) error { return nil }

func (PollingNotifier) MessagesRead(context.Context, string, string, int64) error { return nil }

type NotificationService interface {
	UnreadCount(ctx context.Context, userID string) (int, error)
}

type notificationService struct {
	messageRepo repository.MessageRepository
}

func NewNotificationService(messageRepo repository.MessageRepository) NotificationService {
	return &notificationService{messageRepo: messageRepo}
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.messageRepo.CountUnread(ctx, userID)
}
