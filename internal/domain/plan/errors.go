package plan

import "errors"

var (
	// ErrPlanNotFound indicates no plan exists for the given ID or thread.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrPhaseNotFound indicates the phase doesn't exist in the plan.
	ErrPhaseNotFound = errors.New("plan phase not found")
	// ErrStepNotFound indicates the step doesn't exist in the named phase.
	ErrStepNotFound = errors.New("plan step not found")
	// ErrForbidden indicates the caller doesn't own the plan.
	ErrForbidden = errors.New("plan owned by another user")
	// ErrThreadNotCompleted indicates the thread hasn't finished yet.
	ErrThreadNotCompleted = errors.New("thread not completed")
	// ErrInvalidInput indicates invalid plan input.
	ErrInvalidInput = errors.New("invalid plan input")
)
