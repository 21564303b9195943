package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prepdeck/prepdeck/internal/domain/plan"
	"github.com/prepdeck/prepdeck/internal/repository"
)

// PlanRepository implements plan.PlanRepository for SQLite. The plan
// structure is stored as a JSON outline on the plans row; per-step completion
// state lives in plan_steps and is overlaid on read.
type PlanRepository struct {
	db *DB
}

// NewPlanRepository creates a new PlanRepository
func NewPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create stores a plan and one step-state row per step
func (r *PlanRepository) Create(ctx context.Context, p *plan.Plan) error {
	outline, err := json.Marshal(p.Phases)
	if err != nil {
		return fmt.Errorf("failed to marshal plan outline: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO plans (id, thread_id, owner_id, summary, outline, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		p.ThreadID,
		p.OwnerID,
		p.Summary,
		string(outline),
		p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create plan: %w", err)
	}

	for _, ph := range p.Phases {
		for _, st := range ph.Steps {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO plan_steps (plan_id, phase_id, step_id, completed, completed_at)
				VALUES (?, ?, ?, ?, ?)
			`, p.ID, ph.PhaseID, st.StepID, st.Completed, st.CompletedAt)
			if err != nil {
				return fmt.Errorf("failed to create plan step: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plan: %w", err)
	}

	return nil
}

// Get retrieves a plan by ID
func (r *PlanRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	return r.get(ctx, `WHERE id = ?`, id)
}

// GetByThread retrieves the plan for a thread
func (r *PlanRepository) GetByThread(ctx context.Context, threadID string) (*plan.Plan, error) {
	return r.get(ctx, `WHERE thread_id = ?`, threadID)
}

// MarkStep marks a step completed, preserving the original completion time
// when marked again
func (r *PlanRepository) MarkStep(ctx context.Context, planID, stepID string, completedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE plan_steps
		SET completed = 1, completed_at = COALESCE(completed_at, ?)
		WHERE plan_id = ? AND step_id = ?
	`, completedAt, planID, stepID)
	if err != nil {
		return fmt.Errorf("failed to mark step: %w", err)
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

func (r *PlanRepository) get(ctx context.Context, where string, arg any) (*plan.Plan, error) {
	query := `
		SELECT id, thread_id, owner_id, summary, outline, created_at
		FROM plans ` + where

	var p plan.Plan
	var summary sql.NullString
	var outline string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID,
		&p.ThreadID,
		&p.OwnerID,
		&summary,
		&outline,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	p.Summary = summary.String
	if err := json.Unmarshal([]byte(outline), &p.Phases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan outline: %w", err)
	}

	if err := r.overlayStepStates(ctx, &p); err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *PlanRepository) overlayStepStates(ctx context.Context, p *plan.Plan) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT step_id, completed, completed_at
		FROM plan_steps
		WHERE plan_id = ?
	`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load step states: %w", err)
	}
	defer rows.Close()

	type stepState struct {
		completed   bool
		completedAt *time.Time
	}
	states := make(map[string]stepState)
	for rows.Next() {
		var stepID string
		var completed bool
		var completedAt sql.NullTime
		if err := rows.Scan(&stepID, &completed, &completedAt); err != nil {
			return fmt.Errorf("failed to scan step state: %w", err)
		}
		state := stepState{completed: completed}
		if completedAt.Valid {
			state.completedAt = &completedAt.Time
		}
		states[stepID] = state
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating step states: %w", err)
	}

	for i := range p.Phases {
		for j := range p.Phases[i].Steps {
			if state, ok := states[p.Phases[i].Steps[j].StepID]; ok {
				p.Phases[i].Steps[j].Completed = state.completed
				p.Phases[i].Steps[j].CompletedAt = state.completedAt
			}
		}
	}

	return nil
}
