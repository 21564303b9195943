package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prepdeck/prepdeck/internal/domain/thread"
	"github.com/prepdeck/prepdeck/internal/repository"
)

// ThreadRepository implements thread.ThreadRepository for SQLite
type ThreadRepository struct {
	db *DB
}

// NewThreadRepository creates a new ThreadRepository
func NewThreadRepository(db *DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

// Create inserts a new thread
func (r *ThreadRepository) Create(ctx context.Context, th *thread.Thread) error {
	query := `
		INSERT INTO threads (
			id, owner_id, role, company, background, stage,
			item_count, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		th.ID,
		th.OwnerID,
		th.Context.Role,
		th.Context.Company,
		th.Context.Background,
		th.Stage,
		th.ItemCount,
		th.CreatedAt,
		th.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create thread: %w", err)
	}

	return nil
}

// Get retrieves a thread by ID
func (r *ThreadRepository) Get(ctx context.Context, id string) (*thread.Thread, error) {
	query := `
		SELECT id, owner_id, role, company, background, stage,
		       item_count, created_at, completed_at
		FROM threads
		WHERE id = ?
	`

	var th thread.Thread
	var company, background sql.NullString
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&th.ID,
		&th.OwnerID,
		&th.Context.Role,
		&company,
		&background,
		&th.Stage,
		&th.ItemCount,
		&th.CreatedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}

	th.Context.Company = company.String
	th.Context.Background = background.String
	if completedAt.Valid {
		th.CompletedAt = &completedAt.Time
	}

	return &th, nil
}

// UpdateStage advances a thread's lifecycle stage
func (r *ThreadRepository) UpdateStage(ctx context.Context, id string, stage thread.Stage, completedAt *time.Time) error {
	query := `
		UPDATE threads
		SET stage = ?, completed_at = COALESCE(?, completed_at)
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, stage, completedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
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

// ListByOwner returns summaries for all of a user's threads, newest first
func (r *ThreadRepository) ListByOwner(ctx context.Context, ownerID string) ([]thread.Summary, error) {
	query := `
		SELECT t.id, t.role, t.company, t.stage, t.item_count, t.created_at, t.completed_at,
		       (SELECT COUNT(*) FROM messages m
		        WHERE m.thread_id = t.id AND m.kind = 'answer') AS answered,
		       COALESCE((SELECT SUM(m.score) FROM messages m
		        WHERE m.thread_id = t.id AND m.kind = 'feedback'), 0) AS total_score,
		       COALESCE((SELECT AVG(m.score) FROM messages m
		        WHERE m.thread_id = t.id AND m.kind = 'feedback'), 0) AS average_score,
		       EXISTS(SELECT 1 FROM pins p
		        WHERE p.thread_id = t.id AND p.owner_id = t.owner_id) AS pinned
		FROM threads t
		WHERE t.owner_id = ?
		ORDER BY t.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// Delete removes a thread; messages, plans and pins cascade
func (r *ThreadRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
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

func scanSummaries(rows *sql.Rows) ([]thread.Summary, error) {
	var summaries []thread.Summary
	for rows.Next() {
		var sum thread.Summary
		var company sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(
			&sum.ThreadID,
			&sum.Role,
			&company,
			&sum.Stage,
			&sum.ItemCount,
			&sum.CreatedAt,
			&completedAt,
			&sum.AnsweredCount,
			&sum.TotalScore,
			&sum.AverageScore,
			&sum.Pinned,
		); err != nil {
			return nil, fmt.Errorf("failed to scan thread summary: %w", err)
		}
		sum.Company = company.String
		if completedAt.Valid {
			sum.CompletedAt = &completedAt.Time
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating threads: %w", err)
	}

	return summaries, nil
}
