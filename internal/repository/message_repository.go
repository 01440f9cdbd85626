package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"lostfound/internal/apperr"
	"lostfound/internal/models"
)

const messageColumns = `
	m.message_id, m.sender_id, m.recipient_id, m.item_id, m.content, m.read, m.created_at,
	s.name AS sender_name, s.email AS sender_email,
	r.name AS recipient_name, r.email AS recipient_email,
	i.name AS item_name, i.image_url AS item_image_url`

const messageJoins = `
	JOIN users s ON s.user_id = m.sender_id
	JOIN users r ON r.user_id = m.recipient_id
	LEFT JOIN items i ON i.item_id = m.item_id`

// messageRow is a message with its sender, recipient and item summaries joined in.
type messageRow struct {
	models.Message
	SenderName     string         `db:"sender_name"`
	SenderEmail    string         `db:"sender_email"`
	RecipientName  string         `db:"recipient_name"`
	RecipientEmail string         `db:"recipient_email"`
	ItemName       sql.NullString `db:"item_name"`
	ItemImageURL   sql.NullString `db:"item_image_url"`
}

func (r messageRow) toModel() models.Message {
	msg := r.Message
	msg.Sender = &models.UserSummary{UserID: msg.SenderID, Name: r.SenderName, Email: r.SenderEmail}
	msg.Recipient = &models.UserSummary{UserID: msg.RecipientID, Name: r.RecipientName, Email: r.RecipientEmail}
	msg.Item = nil

	if msg.ItemID != nil && r.ItemName.Valid {
		msg.Item = &models.ItemSummary{ItemID: *msg.ItemID, Name: r.ItemName.String, ImageURL: r.ItemImageURL.String}
	}

	return msg
}

type conversationRow struct {
	messageRow
	PartnerID    string `db:"partner_id"`
	PartnerName  string `db:"partner_name"`
	PartnerEmail string `db:"partner_email"`
	UnreadCount  int    `db:"unread_count"`
}

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	message.MessageID = uuid.New().String()
	message.Read = false
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO messages (message_id, sender_id, recipient_id, item_id, content, read, created_at)
		VALUES (:message_id, :sender_id, :recipient_id, :item_id, :content, :read, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, message)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return apperr.NotFound("recipient or item not found")
		}
		return fmt.Errorf("creating message: %w", err)
	}

	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, messageID string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages m ` + messageJoins + ` WHERE m.message_id = $1`

	var row messageRow
	err := r.db.GetContext(ctx, &row, query, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, fmt.Errorf("getting message: %w", err)
	}

	msg := row.toModel()
	return &msg, nil
}

// ListThread returns every message exchanged between the two users, oldest first.
func (r *messageRepository) ListThread(ctx context.Context, userID, partnerID string) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages m ` + messageJoins + `
		WHERE (m.sender_id = $1 AND m.recipient_id = $2)
		   OR (m.sender_id = $2 AND m.recipient_id = $1)
		ORDER BY m.created_at ASC, m.message_id ASC`

	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, partnerID); err != nil {
		return nil, fmt.Errorf("listing thread: %w", err)
	}

	messages := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, row.toModel())
	}

	return messages, nil
}

func (r *messageRepository) MarkThreadRead(ctx context.Context, recipientID, senderID string) (int64, error) {
	query := `UPDATE messages SET read = TRUE WHERE recipient_id = $1 AND sender_id = $2 AND NOT read`

	result, err := r.db.ExecContext(ctx, query, recipientID, senderID)
	if err != nil {
		return 0, fmt.Errorf("marking thread read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking updated rows: %w", err)
	}

	return rowsAffected, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int

	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND NOT read`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("counting unread messages: %w", err)
	}

	return count, nil
}

// ListConversations derives one row per partner: the latest message of the
// pair and the number of unread messages that partner sent to userID.
func (r *messageRepository) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	query := `
		WITH mine AS (
			SELECT m.*,
				CASE WHEN m.sender_id = $1 THEN m.recipient_id ELSE m.sender_id END AS partner_id
			FROM messages m
			WHERE m.sender_id = $1 OR m.recipient_id = $1
		),
		latest AS (
			SELECT DISTINCT ON (partner_id) *
			FROM mine
			ORDER BY partner_id, created_at DESC, message_id DESC
		),
		unread AS (
			SELECT sender_id, COUNT(*) AS unread_count
			FROM messages
			WHERE recipient_id = $1 AND NOT read
			GROUP BY sender_id
		)
		SELECT ` + messageColumns + `,
			p.user_id AS partner_id, p.name AS partner_name, p.email AS partner_email,
			COALESCE(u.unread_count, 0) AS unread_count
		FROM latest m
		JOIN users p ON p.user_id = m.partner_id ` + messageJoins + `
		LEFT JOIN unread u ON u.sender_id = m.partner_id
		ORDER BY m.created_at DESC, m.message_id DESC
	`

	var rows []conversationRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}

	conversations := make([]models.Conversation, 0, len(rows))
	for _, row := range rows {
		conversations = append(conversations, models.Conversation{
			Partner:       models.UserSummary{UserID: row.PartnerID, Name: row.PartnerName, Email: row.PartnerEmail},
			LatestMessage: row.toModel(),
			UnreadCount:   row.UnreadCount,
		})
	}

	return conversations, nil
}
