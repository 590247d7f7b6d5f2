// Package repository provides data access layer for the watchlist slots.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cinelist/database"
)

// SlotRepository stores named key/value slots in SQLite
type SlotRepository struct {
	db *database.DB
}

// NewSlotRepository creates a new slot repository
func NewSlotRepository(db *database.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// Get retrieves a slot value; ok is false when no row exists for the key
func (r *SlotRepository) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM slots WHERE key = ?`

	var value sql.NullString
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get slot %s: %w", key, err)
	}

	// A NULL value is treated like a missing slot
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

// Set inserts or replaces the whole value of a slot
func (r *SlotRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO slots (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set slot %s: %w", key, err)
	}
	return nil
}
