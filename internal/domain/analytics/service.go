package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/prepdeck/prepdeck/internal/domain/thread"
)

// ErrInvalidInput indicates invalid analytics input.
var ErrInvalidInput = errors.New("invalid analytics input")

// ThreadLister provides thread summaries for aggregation.
type ThreadLister interface {
	ListByOwner(ctx context.Context, ownerID string) ([]thread.Summary, error)
}

// Service computes per-user statistics from thread summaries. Everything is
// derived on read; nothing is cached or stored.
type Service struct {
	threads ThreadLister
	logger  *slog.Logger
}

// NewService creates a new analytics service.
func NewService(threads ThreadLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{threads: threads, logger: logger}
}

// Summarize aggregates all of the user's threads. A user with no completed
// threads gets zero score figures, never an error.
func (s *Service) Summarize(ctx context.Context, ownerID string) (*Summary, error) {
	if ownerID == "" {
		return nil, ErrInvalidInput
	}

	summaries, err := s.threads.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}

	out := &Summary{
		Roles:     []string{},
		Companies: []string{},
	}
	roles := make(map[string]struct{})
	companies := make(map[string]struct{})

	var scoreSum float64
	for _, sum := range summaries {
		out.TotalThreads++
		roles[sum.Role] = struct{}{}
		if sum.Company != "" {
			companies[sum.Company] = struct{}{}
		}
		if sum.Stage != thread.StageCompleted {
			continue
		}
		out.CompletedThreads++
		scoreSum += sum.AverageScore
		if sum.AverageScore > out.BestScore {
			out.BestScore = sum.AverageScore
		}
	}
	if out.CompletedThreads > 0 {
		out.AverageScore = scoreSum / float64(out.CompletedThreads)
	}

	for r := range roles {
		out.Roles = append(out.Roles, r)
	}
	for c := range companies {
		out.Companies = append(out.Companies, c)
	}
	sort.Strings(out.Roles)
	sort.Strings(out.Companies)

	return out, nil
}
