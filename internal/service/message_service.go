package service

import (
	"context"
	"log/slog"
	"strings"

	"lostfound/internal/apperr"
	"lostfound/internal/models"
	"lostfound/internal/repository"
)

type SendMessageRequest struct {
	SenderID    string  `json:"-"`
	RecipientID string  `json:"recipientId" validate:"required"`
	Content     string  `json:"content" validate:"required,max=5000"`
	ItemID      *string `json:"itemId,omitempty"`
}

type MessageService interface {
	Send(ctx context.Context, req SendMessageRequest) (*models.Message, error)
	// ListThread marks partnerID's messages to userID as read and returns the
	// whole exchange oldest first.
	ListThread(ctx context.Context, userID, partnerID string) ([]models.Message, error)
	Conversations(ctx context.Context, userID string) ([]models.Conversation, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	itemRepo    repository.ItemRepository
	notifier    Notifier
	logger      *slog.Logger
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	itemRepo repository.ItemRepository,
	notifier Notifier,
	logger *slog.Logger,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		itemRepo:    itemRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

func (s *messageService) Send(ctx context.Context, req SendMessageRequest) (*models.Message, error) {
	content := strings.TrimSpace(req.Content)
	recipientID := strings.TrimSpace(req.RecipientID)

	if content == "" {
		return nil, apperr.Validation("content is required")
	}
	if recipientID == "" {
		return nil, apperr.Validation("recipientId is required")
	}
	if recipientID == req.SenderID {
		return nil, apperr.Validation("cannot send a message to yourself")
	}

	if _, err := s.userRepo.GetUserByID(ctx, recipientID); err != nil {
		return nil, err
	}

	var itemID *string
	if req.ItemID != nil && strings.TrimSpace(*req.ItemID) != "" {
		id := strings.TrimSpace(*req.ItemID)
		if _, err := s.itemRepo.GetByID(ctx, id); err != nil {
			return nil, err
		}
		itemID = &id
	}

	msg := &models.Message{
		SenderID:    req.SenderID,
		RecipientID: recipientID,
		ItemID:      itemID,
		Content:     content,
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	messagesSentTotal.Inc()

	stored, err := s.messageRepo.GetByID(ctx, msg.MessageID)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.MessageSent(ctx, stored); err != nil {
		s.logger.Warn("notifying recipient failed",
			slog.String("message_id", stored.MessageID),
			slog.String("error", err.Error()),
		)
	}

	return stored, nil
}

func (s *messageService) ListThread(ctx context.Context, userID, partnerID string) ([]models.Message, error) {
	if strings.TrimSpace(partnerID) == "" {
		return nil, apperr.Validation("partner id is required")
	}

	if _, err := s.userRepo.GetUserByID(ctx, partnerID); err != nil {
		return nil, err
	}

	marked, err := s.messageRepo.MarkThreadRead(ctx, userID, partnerID)
	if err != nil {
		return nil, err
	}

	if marked > 0 {
		messagesReadTotal.Add(float64(marked))
		if err := s.notifier.MessagesRead(ctx, userID, partnerID, marked); err != nil {
			s.logger.Warn("notifying read state failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	return s.messageRepo.ListThread(ctx, userID, partnerID)
}

func (s *messageService) Conversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	return s.messageRepo.ListConversations(ctx, userID)
}
