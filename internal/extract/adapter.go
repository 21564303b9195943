// Package extract turns free-form model output into schema-validated values
// for each assessment stage. Every method validates the provider's JSON,
// retries once with a stricter instruction on failure, and falls back to a
// deterministic template so callers always get a usable result.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prepdeck/prepdeck/internal/domain/plan"
	"github.com/prepdeck/prepdeck/internal/domain/thread"
	"github.com/prepdeck/prepdeck/internal/llm"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultTemperature = 0.7
	maxAttempts        = 2
)

// Adapter implements thread.Extractor on top of an llm.Provider.
type Adapter struct {
	provider llm.Provider
	model    string
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(a *Adapter) { a.model = model }
}

// WithTimeout sets the per-call provider timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.timeout = d }
}

// New creates an extraction adapter over the given provider.
func New(provider llm.Provider, logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &Adapter{
		provider: provider,
		timeout:  defaultTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type questionsPayload struct {
	Questions []string `json:"questions"`
}

type scorePayload struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Questions returns exactly n questions for the context. Provider output
// with extra questions is truncated; too few is a validation failure.
func (a *Adapter) Questions(ctx context.Context, actx thread.Context, n int) []string {
	var payload questionsPayload
	err := a.completeJSON(ctx, "questions", questionsPrompt(actx, n), &payload, func() error {
		valid := payload.Questions[:0]
		for _, q := range payload.Questions {
			if strings.TrimSpace(q) != "" {
				valid = append(valid, q)
			}
		}
		payload.Questions = valid
		if len(payload.Questions) < n {
			return fmt.Errorf("got %d questions, need %d", len(payload.Questions), n)
		}
		return nil
	})
	if err != nil {
		a.logger.Warn("question generation fell back to templates", "error", err)
		return fallbackQuestions(actx, n)
	}
	return payload.Questions[:n]
}

// ScoreAnswer returns a score in 0..10 and feedback prose for one answer.
func (a *Adapter) ScoreAnswer(ctx context.Context, actx thread.Context, question, answer string) (int, string) {
	var payload scorePayload
	err := a.completeJSON(ctx, "score", scorePrompt(actx, question, answer), &payload, func() error {
		if payload.Score < 0 || payload.Score > 10 {
			return fmt.Errorf("score %d out of range", payload.Score)
		}
		if strings.TrimSpace(payload.Feedback) == "" {
			return fmt.Errorf("empty feedback")
		}
		return nil
	})
	if err != nil {
		a.logger.Warn("answer scoring fell back to default", "error", err)
		return fallbackScore, fallbackFeedback
	}
	return payload.Score, payload.Feedback
}

// Plan returns the serialized improvement-plan outline for the transcript.
// The outline is validated against the full plan schema before it is accepted,
// since it gets stored verbatim and materialized into a trackable plan later.
func (a *Adapter) Plan(ctx context.Context, actx thread.Context, history []thread.Message) string {
	raw := ""
	err := a.completeRaw(ctx, "plan", planPrompt(actx, history), &raw, func() error {
		var outline plan.Outline
		if err := json.Unmarshal([]byte(raw), &outline); err != nil {
			return fmt.Errorf("parsing outline: %w", err)
		}
		return validateOutline(outline)
	})
	if err != nil {
		a.logger.Warn("plan synthesis fell back to template", "error", err)
		return fallbackPlanJSON(actx)
	}
	return raw
}

// validateOutline rejects outlines that would not survive materialization:
// empty phases, steps without titles, or step IDs repeated across the outline.
func validateOutline(outline plan.Outline) error {
	if len(outline.Phases) == 0 {
		return fmt.Errorf("outline has no phases")
	}
	seen := make(map[string]bool)
	for i, ph := range outline.Phases {
		if len(ph.Steps) == 0 {
			return fmt.Errorf("phase %d has no steps", i)
		}
		for j, st := range ph.Steps {
			if strings.TrimSpace(st.Title) == "" {
				return fmt.Errorf("phase %d step %d has no title", i, j)
			}
			if st.StepID == "" {
				continue
			}
			if seen[st.StepID] {
				return fmt.Errorf("duplicate step id %q", st.StepID)
			}
			seen[st.StepID] = true
		}
	}
	return nil
}

func (a *Adapter) completeJSON(ctx context.Context, kind, prompt string, out any, validate func() error) error {
	raw := ""
	return a.completeRaw(ctx, kind, prompt, &raw, func() error {
		if err := json.Unmarshal([]byte(raw), out); err != nil {
			return fmt.Errorf("parsing %s response: %w", kind, err)
		}
		return validate()
	})
}

// completeRaw runs up to maxAttempts provider calls, storing the cleaned
// response in *raw and accepting the first one that validates.
func (a *Adapter) completeRaw(ctx context.Context, kind, prompt string, raw *string, validate func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p := prompt
		if attempt > 1 {
			p = prompt + "\n\n" + strictReminder
		}

		content, err := a.complete(ctx, p)
		if err != nil {
			lastErr = err
			a.logger.Debug("provider call failed", "kind", kind, "attempt", attempt, "error", err)
			continue
		}

		*raw = stripFences(content)
		if err := validate(); err != nil {
			lastErr = err
			a.logger.Debug("response failed validation", "kind", kind, "attempt", attempt, "error", err)
			continue
		}
		return nil
	}
	return lastErr
}

func (a *Adapter) complete(ctx context.Context, prompt string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.provider.Complete(cctx, llm.CompletionRequest{
		Model: a.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		Temperature: defaultTemperature,
		JSONMode:    true,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON
// in one despite the instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
