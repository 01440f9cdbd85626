package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"lostfound/internal/apperr"
	"lostfound/internal/models"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

// Follow inserts the (user, item) edge. The primary key makes a second follow
// a no-op insert, reported as a conflict.
func (r *followRepository) Follow(ctx context.Context, userID, itemID string) error {
	query := `
		INSERT INTO follows (user_id, item_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, item_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, userID, itemID, time.Now().UTC())
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return apperr.NotFound("item not found")
		}
		return fmt.Errorf("following item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking inserted rows: %w", err)
	}

	if rowsAffected == 0 {
		return apperr.Conflict("already following")
	}

	return nil
}

func (r *followRepository) Unfollow(ctx context.Context, userID, itemID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	if err != nil {
		return fmt.Errorf("unfollowing item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}

	if rowsAffected == 0 {
		return apperr.Conflict("not following")
	}

	return nil
}

func (r *followRepository) IsFollowing(ctx context.Context, userID, itemID string) (bool, error) {
	var exists bool

	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE user_id = $1 AND item_id = $2)`, userID, itemID)
	if err != nil {
		return false, fmt.Errorf("checking follow: %w", err)
	}

	return exists, nil
}

func (r *followRepository) ListFollowedItems(ctx context.Context, userID string) ([]models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM follows f
		JOIN items i ON i.item_id = f.item_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC, i.item_id
	`

	var rows []itemRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("listing followed items: %w", err)
	}

	return rowsToItems(rows), nil
}
