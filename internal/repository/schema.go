package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// RequiredTables are the tables the application cannot run without.
var RequiredTables = []string{"users", "items", "follows", "messages"}

type SchemaRepository interface {
	CountTables(ctx context.Context) (int, error)
	// MissingTables returns the RequiredTables absent from the public schema.
	MissingTables(ctx context.Context) ([]string, error)
}

type schemaRepository struct {
	db *sqlx.DB
}

func NewSchemaRepository(db *sqlx.DB) SchemaRepository {
	return &schemaRepository{db: db}
}

func (r *schemaRepository) CountTables(ctx context.Context) (int, error) {
	var count int

	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = 'public'
	`)
	if err != nil {
		return 0, fmt.Errorf("counting tables: %w", err)
	}

	return count, nil
}

func (r *schemaRepository) MissingTables(ctx context.Context) ([]string, error) {
	var present []string

	err := r.db.SelectContext(ctx, &present, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = ANY($1)
	`, pq.Array(RequiredTables))
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	found := make(map[string]bool, len(present))
	for _, name := range present {
		found[name] = true
	}

	var missing []string
	for _, name := range RequiredTables {
		if !found[name] {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
