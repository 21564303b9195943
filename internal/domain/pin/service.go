package pin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prepdeck/prepdeck/internal/domain/thread"
	"github.com/prepdeck/prepdeck/internal/repository"
)

// PinRepository provides persistence for the pin registry.
type PinRepository interface {
	Add(ctx context.Context, ownerID, threadID string) error
	Remove(ctx context.Context, ownerID, threadID string) error
	ListPinned(ctx context.Context, ownerID string) ([]thread.Summary, error)
}

// ThreadReader provides thread access for ownership and stage checks.
type ThreadReader interface {
	Get(ctx context.Context, id string) (*thread.Thread, error)
}

// Service maintains the set of threads a user keeps pinned. Only completed
// threads can be pinned; pin and unpin are both idempotent.
type Service struct {
	pins    PinRepository
	threads ThreadReader
	logger  *slog.Logger
}

// NewService creates a new pin service.
func NewService(pins PinRepository, threads ThreadReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{pins: pins, threads: threads, logger: logger}
}

// Pin marks a completed thread as pinned for its owner.
func (s *Service) Pin(ctx context.Context, ownerID, threadID string) error {
	th, err := s.ownedThread(ctx, ownerID, threadID)
	if err != nil {
		return err
	}
	if th.Stage != thread.StageCompleted {
		return ErrNotCompleted
	}
	if err := s.pins.Add(ctx, ownerID, threadID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("adding pin: %w", err)
	}
	s.logger.Info("thread pinned", "thread_id", threadID)
	return nil
}

// Unpin removes a pin. Unpinning a thread that isn't pinned succeeds.
func (s *Service) Unpin(ctx context.Context, ownerID, threadID string) error {
	if _, err := s.ownedThread(ctx, ownerID, threadID); err != nil {
		return err
	}
	if err := s.pins.Remove(ctx, ownerID, threadID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("removing pin: %w", err)
	}
	return nil
}

// ListPinned returns summaries of the user's pinned threads.
func (s *Service) ListPinned(ctx context.Context, ownerID string) ([]thread.Summary, error) {
	if ownerID == "" {
		return nil, ErrInvalidInput
	}
	return s.pins.ListPinned(ctx, ownerID)
}

func (s *Service) ownedThread(ctx context.Context, ownerID, threadID string) (*thread.Thread, error) {
	if threadID == "" {
		return nil, ErrInvalidInput
	}
	th, err := s.threads.Get(ctx, threadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading thread: %w", err)
	}
	if th.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return th, nil
}
