package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"minimal-price/internal/domain"
)

var ErrSyncEntryNotFound = errors.New("discord sync entry not found")

// SyncRepository persists the category name to Discord thread/message mapping
// owned by the Discord mirror. It lives beside the catalog tables but is never
// read by the catalog core.
type SyncRepository interface {
	Get(ctx context.Context, categoryName string) (*domain.SyncEntry, error)
	Save(ctx context.Context, entry *domain.SyncEntry) error
	Delete(ctx context.Context, categoryName string) error
	All(ctx context.Context) ([]domain.SyncEntry, error)
}

type syncRepository struct {
	db *sql.DB
}

// NewSyncRepository creates a new instance of SyncRepository
func NewSyncRepository(db *sql.DB) SyncRepository {
	return &syncRepository{db: db}
}

func (r *syncRepository) Get(ctx context.Context, categoryName string) (*domain.SyncEntry, error) {
	query := `SELECT category_name, thread_id, message_id FROM discord_sync WHERE category_name = $1`

	entry := &domain.SyncEntry{}
	err := r.db.QueryRowContext(ctx, query, categoryName).Scan(
		&entry.CategoryName,
		&entry.ThreadID,
		&entry.MessageID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSyncEntryNotFound
		}
		return nil, fmt.Errorf("failed to get sync entry: %w", err)
	}

	return entry, nil
}

// Save upserts the mapping keyed by category name
func (r *syncRepository) Save(ctx context.Context, entry *domain.SyncEntry) error {
	query := `
		INSERT INTO discord_sync (category_name, thread_id, message_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (category_name) DO UPDATE SET thread_id = EXCLUDED.thread_id, message_id = EXCLUDED.message_id
	`

	if _, err := r.db.ExecContext(ctx, query, entry.CategoryName, entry.ThreadID, entry.MessageID); err != nil {
		return fmt.Errorf("failed to save sync entry: %w", err)
	}

	return nil
}

func (r *syncRepository) Delete(ctx context.Context, categoryName string) error {
	query := `DELETE FROM discord_sync WHERE category_name = $1`

	if _, err := r.db.ExecContext(ctx, query, categoryName); err != nil {
		return fmt.Errorf("failed to delete sync entry: %w", err)
	}

	return nil
}

func (r *syncRepository) All(ctx context.Context) ([]domain.SyncEntry, error) {
	query := `SELECT category_name, thread_id, message_id FROM discord_sync`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.SyncEntry{}
	for rows.Next() {
		var entry domain.SyncEntry
		if err := rows.Scan(&entry.CategoryName, &entry.ThreadID, &entry.MessageID); err != nil {
			return nil, fmt.Errorf("failed to scan sync entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync entries: %w", err)
	}

	return entries, nil
}
