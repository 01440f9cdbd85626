package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"lostfound/internal/apperr"
	"lostfound/internal/models"
)

const itemColumns = `
	i.item_id, i.owner_id, i.name, i.description, i.category,
	i.date_found::text AS date_found, i.building, i.latitude, i.longitude,
	i.image_url, i.image_key, i.created_at, i.updated_at`

// itemRow carries the nullable location columns that models.Item folds into Location.
type itemRow struct {
	models.Item
	Building  sql.NullString  `db:"building"`
	Latitude  sql.NullFloat64 `db:"latitude"`
	Longitude sql.NullFloat64 `db:"longitude"`
}

func (r itemRow) toModel() models.Item {
	item := r.Item
	item.Location = nil

	if r.Building.Valid || (r.Latitude.Valid && r.Longitude.Valid) {
		loc := &models.Location{Building: r.Building.String}
		if r.Latitude.Valid && r.Longitude.Valid {
			loc.Coordinates = &models.Coordinates{Lat: r.Latitude.Float64, Lng: r.Longitude.Float64}
		}
		item.Location = loc
	}

	return item
}

func rowsToItems(rows []itemRow) []models.Item {
	items := make([]models.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toModel())
	}
	return items
}

// locationArgs splits a Location into its three nullable columns.
func locationArgs(loc *models.Location) (sql.NullString, sql.NullFloat64, sql.NullFloat64) {
	var building sql.NullString
	var lat, lng sql.NullFloat64

	if loc == nil {
		return building, lat, lng
	}
	if loc.Building != "" {
		building = sql.NullString{String: loc.Building, Valid: true}
	}
	if loc.Coordinates != nil {
		lat = sql.NullFloat64{Float64: loc.Coordinates.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: loc.Coordinates.Lng, Valid: true}
	}
	return building, lat, lng
}

type itemRepository struct {
	db *sqlx.DB
}

func NewItemRepository(db *sqlx.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *models.Item) error {
	if item.ItemID == "" {
		item.ItemID = uuid.New().String()
	}

	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	building, lat, lng := locationArgs(item.Location)

	query := `
		INSERT INTO items
		(item_id, owner_id, name, description, category, date_found, building, latitude, longitude,
		 image_url, image_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ItemID, item.OwnerID, item.Name, item.Description, item.Category, item.DateFound,
		building, lat, lng, item.ImageURL, item.ImageKey, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return apperr.NotFound("owner not found")
		}
		return fmt.Errorf("creating item: %w", err)
	}

	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, itemID string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items i WHERE i.item_id = $1`

	var row itemRow
	err := r.db.GetContext(ctx, &row, query, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("item not found")
		}
		return nil, fmt.Errorf("getting item: %w", err)
	}

	item := row.toModel()
	return &item, nil
}

func (r *itemRepository) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	var (
		conditions []string
		args       []any
	)

	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		conditions = append(conditions, fmt.Sprintf("(i.name ILIKE $%d OR i.description ILIKE $%d)", len(args), len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("i.category = $%d", len(args)))
	}
	if filter.Building != "" {
		args = append(args, filter.Building)
		conditions = append(conditions, fmt.Sprintf("i.building = $%d", len(args)))
	}

	query := `SELECT ` + itemColumns + ` FROM items i`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY i.created_at DESC, i.item_id`

	var rows []itemRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	return rowsToItems(rows), nil
}

func (r *itemRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items i WHERE i.owner_id = $1 ORDER BY i.created_at DESC, i.item_id`

	var rows []itemRow
	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("listing items of owner: %w", err)
	}

	return rowsToItems(rows), nil
}

func (r *itemRepository) Update(ctx context.Context, item *models.Item) error {
	item.UpdatedAt = time.Now().UTC()
	building, lat, lng := locationArgs(item.Location)

	query := `
		UPDATE items SET
			name = $1,
			description = $2,
			category = $3,
			date_found = $4,
			building = $5,
			latitude = $6,
			longitude = $7,
			image_url = $8,
			image_key = $9,
			updated_at = $10
		WHERE item_id = $11
	`

	result, err := r.db.ExecContext(ctx, query,
		item.Name, item.Description, item.Category, item.DateFound,
		building, lat, lng, item.ImageURL, item.ImageKey, item.UpdatedAt, item.ItemID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking updated rows: %w", err)
	}

	if rowsAffected == 0 {
		return apperr.NotFound("item not found")
	}

	return nil
}

func (r *itemRepository) Delete(ctx context.Context, itemID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM follows WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("removing follows of item: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE messages SET item_id = NULL WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("detaching messages from item: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM items WHERE item_id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}

	if rowsAffected == 0 {
		return apperr.NotFound("item not found")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item deletion: %w", err)
	}

	return nil
}
