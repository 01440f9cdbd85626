package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"lostfound/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User, password string) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error)
	MarkVerified(ctx context.Context, userID string) error
	VerifyPassword(ctx context.Context, email, password string) (*models.User, error)
}

type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, itemID string) (*models.Item, error)
	List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Item, error)
	Update(ctx context.Context, item *models.Item) error
	// Delete removes the item together with every follow edge and message tag
	// that references it.
	Delete(ctx context.Context, itemID string) error
}

type FollowRepository interface {
	Follow(ctx context.Context, userID, itemID string) error
	Unfollow(ctx context.Context, userID, itemID string) error
	IsFollowing(ctx context.Context, userID, itemID string) (bool, error)
	ListFollowedItems(ctx context.Context, userID string) ([]models.Item, error)
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, messageID string) (*models.Message, error)
	ListThread(ctx context.Context, userID, partnerID string) ([]models.Message, error)
	MarkThreadRead(ctx context.Context, recipientID, senderID string) (int64, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
}

type Repository struct {
	User    UserRepository
	Item    ItemRepository
	Follow  FollowRepository
	Message MessageRepository
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		User:    NewUserRepository(db),
		Item:    NewItemRepository(db),
		Follow:  NewFollowRepository(db),
		Message: NewMessageRepository(db),
	}
}

// Postgres error codes the repositories translate.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
