package thread

import (
	"context"
	"time"
)

// ThreadRepository provides persistence for threads.
type ThreadRepository interface {
	Create(ctx context.Context, th *Thread) error
	Get(ctx context.Context, id string) (*Thread, error)
	UpdateStage(ctx context.Context, id string, stage Stage, completedAt *time.Time) error
	ListByOwner(ctx context.Context, ownerID string) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}

// MessageRepository provides append-only persistence for the message log.
type MessageRepository interface {
	Append(ctx context.Context, msg *Message) (int64, error)
	ListByThread(ctx context.Context, threadID string) ([]Message, error)
	CountByKind(ctx context.Context, threadID string, kind MessageKind) (int, error)
}

// Extractor produces schema-validated model output for each stage. All
// methods recover from provider failures internally and always return a
// usable value, so the state machine can proceed unconditionally.
type Extractor interface {
	// Questions returns exactly n question strings for the given context.
	Questions(ctx context.Context, actx Context, n int) []string
	// ScoreAnswer returns a bounded score and feedback prose for one answer.
	ScoreAnswer(ctx context.Context, actx Context, question, answer string) (int, string)
	// Plan returns the serialized improvement-plan outline derived from the
	// full question/answer/feedback history.
	Plan(ctx context.Context, actx Context, history []Message) string
}
