package plan

import (
	"context"
	"time"

	"github.com/prepdeck/prepdeck/internal/domain/thread"
)

// PlanRepository provides persistence for plans and their step states.
type PlanRepository interface {
	Create(ctx context.Context, p *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	GetByThread(ctx context.Context, threadID string) (*Plan, error)
	// MarkStep marks a step completed. Marking an already completed step
	// leaves its original completion time in place.
	MarkStep(ctx context.Context, planID, stepID string, completedAt time.Time) error
}

// ThreadReader provides thread access for ownership and stage checks.
type ThreadReader interface {
	Get(ctx context.Context, id string) (*thread.Thread, error)
}

// MessageReader provides message log access for plan materialization.
type MessageReader interface {
	ListByThread(ctx context.Context, threadID string) ([]thread.Message, error)
}
