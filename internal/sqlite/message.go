package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prepdeck/prepdeck/internal/domain/thread"
	"github.com/prepdeck/prepdeck/internal/repository"
)

// MessageRepository implements thread.MessageRepository for SQLite
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append assigns the next sequence number within the thread and inserts the
// message. Sequence assignment and insert run in one transaction so the
// per-thread order has no gaps or duplicates.
func (r *MessageRepository) Append(ctx context.Context, msg *thread.Message) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM messages WHERE thread_id = ?`,
		msg.ThreadID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to assign sequence: %w", err)
	}

	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (thread_id, sequence, kind, item_index, content, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		msg.ThreadID,
		seq,
		msg.Kind,
		msg.ItemIndex,
		msg.Content,
		msg.Score,
		createdAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return 0, repository.ErrForeignKeyViolation
		}
		return 0, fmt.Errorf("failed to append message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit message: %w", err)
	}

	msg.Sequence = seq
	msg.CreatedAt = createdAt
	return seq, nil
}

// ListByThread returns all messages for a thread in sequence order
func (r *MessageRepository) ListByThread(ctx context.Context, threadID string) ([]thread.Message, error) {
	query := `
		SELECT thread_id, sequence, kind, item_index, content, score, created_at
		FROM messages
		WHERE thread_id = ?
		ORDER BY sequence ASC
	`

	rows, err := r.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []thread.Message
	for rows.Next() {
		var msg thread.Message
		var itemIndex, score sql.NullInt64
		if err := rows.Scan(
			&msg.ThreadID,
			&msg.Sequence,
			&msg.Kind,
			&itemIndex,
			&msg.Content,
			&score,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if itemIndex.Valid {
			idx := int(itemIndex.Int64)
			msg.ItemIndex = &idx
		}
		if score.Valid {
			sc := int(score.Int64)
			msg.Score = &sc
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// CountByKind returns the number of messages of one kind in a thread
func (r *MessageRepository) CountByKind(ctx context.Context, threadID string, kind thread.MessageKind) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE thread_id = ? AND kind = ?`,
		threadID, kind,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
