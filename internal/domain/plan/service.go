package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeck/prepdeck/internal/domain/thread"
	"github.com/prepdeck/prepdeck/internal/repository"
)

// Service materializes improvement plans from completed threads and tracks
// per-step progress.
type Service struct {
	plans    PlanRepository
	threads  ThreadReader
	messages MessageReader
	logger   *slog.Logger
}

// NewService creates a new plan service.
func NewService(plans PlanRepository, threads ThreadReader, messages MessageReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{plans: plans, threads: threads, messages: messages, logger: logger}
}

// GetForThread returns the trackable plan for a completed thread. On first
// access the plan is materialized from the thread's plan message and
// persisted; later reads return the stored plan with its step states.
func (s *Service) GetForThread(ctx context.Context, ownerID, threadID string) (*Plan, error) {
	th, err := s.ownedThread(ctx, ownerID, threadID)
	if err != nil {
		return nil, err
	}
	if th.Stage != thread.StageCompleted {
		return nil, ErrThreadNotCompleted
	}

	p, err := s.plans.GetByThread(ctx, threadID)
	if err == nil {
		p.RecomputeProgress()
		return p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("loading plan: %w", err)
	}

	p, err = s.materialize(ctx, th)
	if err != nil {
		return nil, err
	}
	if err := s.plans.Create(ctx, p); err != nil {
		// A concurrent reader may have materialized first. Fall back to
		// the stored plan so both callers see the same IDs.
		if errors.Is(err, repository.ErrDuplicate) {
			stored, getErr := s.plans.GetByThread(ctx, threadID)
			if getErr != nil {
				return nil, fmt.Errorf("loading plan after race: %w", getErr)
			}
			stored.RecomputeProgress()
			return stored, nil
		}
		return nil, fmt.Errorf("storing plan: %w", err)
	}

	s.logger.Info("plan materialized", "plan_id", p.ID, "thread_id", threadID, "steps", p.StepCount())

	p.RecomputeProgress()
	return p, nil
}

// Get returns a plan by its own ID.
func (s *Service) Get(ctx context.Context, ownerID, planID string) (*Plan, error) {
	p, err := s.ownedPlan(ctx, ownerID, planID)
	if err != nil {
		return nil, err
	}
	p.RecomputeProgress()
	return p, nil
}

// MarkStepComplete marks one step in the named phase done and returns the
// plan with its recomputed progress percentage. Marking the same step twice
// is a no-op.
func (s *Service) MarkStepComplete(ctx context.Context, ownerID, planID, phaseID, stepID string) (*Plan, error) {
	if phaseID == "" || stepID == "" {
		return nil, ErrInvalidInput
	}
	p, err := s.ownedPlan(ctx, ownerID, planID)
	if err != nil {
		return nil, err
	}

	phaseFound := false
	stepFound := false
	for _, ph := range p.Phases {
		if ph.PhaseID != phaseID {
			continue
		}
		phaseFound = true
		for _, st := range ph.Steps {
			if st.StepID == stepID {
				stepFound = true
			}
		}
	}
	if !phaseFound {
		return nil, ErrPhaseNotFound
	}
	if !stepFound {
		return nil, ErrStepNotFound
	}

	if err := s.plans.MarkStep(ctx, planID, stepID, time.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStepNotFound
		}
		return nil, fmt.Errorf("marking step: %w", err)
	}

	p, err = s.plans.Get(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("reloading plan: %w", err)
	}
	p.RecomputeProgress()
	return p, nil
}

func (s *Service) materialize(ctx context.Context, th *thread.Thread) (*Plan, error) {
	history, err := s.messages.ListByThread(ctx, th.ID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	var content string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Kind == thread.KindPlan {
			content = history[i].Content
			break
		}
	}
	if content == "" {
		return nil, ErrPlanNotFound
	}

	var outline Outline
	if err := json.Unmarshal([]byte(content), &outline); err != nil {
		return nil, fmt.Errorf("parsing plan outline: %w", err)
	}

	p := &Plan{
		ID:        uuid.NewString(),
		ThreadID:  th.ID,
		OwnerID:   th.OwnerID,
		Summary:   outline.Summary,
		CreatedAt: time.Now(),
	}
	// Generated IDs are deduplicated so an outline with repeated or missing
	// IDs still produces a storable plan.
	phaseIDs := make(map[string]bool)
	stepIDs := make(map[string]bool)
	for i, po := range outline.Phases {
		phaseID := po.PhaseID
		if phaseID == "" {
			phaseID = fmt.Sprintf("phase-%d", i+1)
		}
		phaseID = uniqueID(phaseID, phaseIDs)
		phase := Phase{PhaseID: phaseID, Name: po.Name, Focus: po.Focus}
		for j, so := range po.Steps {
			stepID := so.StepID
			if stepID == "" {
				stepID = fmt.Sprintf("%s-step-%d", phaseID, j+1)
			}
			stepID = uniqueID(stepID, stepIDs)
			phase.Steps = append(phase.Steps, Step{
				StepID:         stepID,
				Title:          so.Title,
				Description:    so.Description,
				StepType:       so.StepType,
				EstimatedHours: so.EstimatedHours,
				Resources:      so.Resources,
			})
		}
		p.Phases = append(p.Phases, phase)
	}

	return p, nil
}

// uniqueID returns id unchanged when unseen, otherwise the first numbered
// variant that is. The chosen ID is recorded in seen.
func uniqueID(id string, seen map[string]bool) string {
	base := id
	for n := 2; seen[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	seen[id] = true
	return id
}

func (s *Service) ownedThread(ctx context.Context, ownerID, threadID string) (*thread.Thread, error) {
	if threadID == "" {
		return nil, ErrInvalidInput
	}
	th, err := s.threads.Get(ctx, threadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, thread.ErrThreadNotFound
		}
		return nil, fmt.Errorf("loading thread: %w", err)
	}
	if th.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return th, nil
}

func (s *Service) ownedPlan(ctx context.Context, ownerID, planID string) (*Plan, error) {
	if planID == "" {
		return nil, ErrInvalidInput
	}
	p, err := s.plans.Get(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("loading plan: %w", err)
	}
	if p.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return p, nil
}
