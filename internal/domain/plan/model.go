package plan

import "time"

// Resource points at external study material attached to a step.
type Resource struct {
	Title    string `json:"title"`
	Provider string `json:"provider,omitempty"`
	Type     string `json:"type,omitempty"`
	URL      string `json:"url,omitempty"`
	Cost     string `json:"cost,omitempty"`
}

// StepOutline is one step as produced by the extraction adapter.
type StepOutline struct {
	StepID         string     `json:"step_id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	StepType       string     `json:"step_type,omitempty"`
	EstimatedHours int        `json:"estimated_hours,omitempty"`
	Resources      []Resource `json:"resources,omitempty"`
}

// PhaseOutline groups steps under one phase of the improvement plan.
type PhaseOutline struct {
	PhaseID string        `json:"phase_id,omitempty"`
	Name    string        `json:"name"`
	Focus   string        `json:"focus,omitempty"`
	Steps   []StepOutline `json:"steps"`
}

// Outline is the serialized plan shape stored in the thread's plan message.
type Outline struct {
	Summary string         `json:"summary,omitempty"`
	Phases  []PhaseOutline `json:"phases"`
}

// Step is a materialized plan step with its completion state.
type Step struct {
	StepID         string     `json:"step_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	StepType       string     `json:"step_type,omitempty"`
	EstimatedHours int        `json:"estimated_hours,omitempty"`
	Resources      []Resource `json:"resources,omitempty"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Phase is a materialized plan phase.
type Phase struct {
	PhaseID string `json:"phase_id"`
	Name    string `json:"name"`
	Focus   string `json:"focus,omitempty"`
	Steps   []Step `json:"steps"`
}

// Plan is the trackable improvement plan for a completed thread. Progress is
// recomputed from step states on every read and never stored.
type Plan struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	OwnerID   string    `json:"owner_id"`
	Summary   string    `json:"summary,omitempty"`
	Phases    []Phase   `json:"phases"`
	Progress  float64   `json:"progress_percentage"`
	CreatedAt time.Time `json:"created_at"`
}

// StepCount returns the total number of steps across all phases.
func (p *Plan) StepCount() int {
	n := 0
	for _, ph := range p.Phases {
		n += len(ph.Steps)
	}
	return n
}

// CompletedCount returns the number of completed steps.
func (p *Plan) CompletedCount() int {
	n := 0
	for _, ph := range p.Phases {
		for _, st := range ph.Steps {
			if st.Completed {
				n++
			}
		}
	}
	return n
}

// RecomputeProgress refreshes Progress from the current step states.
func (p *Plan) RecomputeProgress() {
	total := p.StepCount()
	if total == 0 {
		p.Progress = 0
		return
	}
	p.Progress = float64(p.CompletedCount()) / float64(total) * 100
}
