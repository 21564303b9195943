package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/prepdeck/prepdeck/internal/domain/thread"
	"github.com/prepdeck/prepdeck/internal/repository"
)

// PinRepository implements pin.PinRepository for SQLite
type PinRepository struct {
	db *DB
}

// NewPinRepository creates a new PinRepository
func NewPinRepository(db *DB) *PinRepository {
	return &PinRepository{db: db}
}

// Add pins a thread for a user
func (r *PinRepository) Add(ctx context.Context, ownerID, threadID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pins (owner_id, thread_id, created_at)
		VALUES (?, ?, ?)
	`, ownerID, threadID, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to add pin: %w", err)
	}
	return nil
}

// Remove unpins a thread for a user
func (r *PinRepository) Remove(ctx context.Context, ownerID, threadID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM pins WHERE owner_id = ? AND thread_id = ?`,
		ownerID, threadID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove pin: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListPinned returns summaries of a user's pinned threads, newest pin first
func (r *PinRepository) ListPinned(ctx context.Context, ownerID string) ([]thread.Summary, error) {
	query := `
		SELECT t.id, t.role, t.company, t.stage, t.item_count, t.created_at, t.completed_at,
		       (SELECT COUNT(*) FROM messages m
		        WHERE m.thread_id = t.id AND m.kind = 'answer') AS answered,
		       COALESCE((SELECT SUM(m.score) FROM messages m
		        WHERE m.thread_id = t.id AND m.kind = 'feedback'), 0) AS total_score,
		       COALESCE((SELECT AVG(m.score) FROM messages m
		        WHERE m.thread_id = t.id AND m.kind = 'feedback'), 0) AS average_score,
		       1 AS pinned
		FROM threads t
		JOIN pins p ON p.thread_id = t.id
		WHERE p.owner_id = ?
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pinned threads: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}
