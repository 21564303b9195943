package mocks

import (
	"context"
	"time"

	"github.com/prepdeck/prepdeck/internal/domain/plan"
	"github.com/prepdeck/prepdeck/internal/domain/thread"
	"github.com/stretchr/testify/mock"
)

// ThreadRepository is a mock for thread.ThreadRepository.
type ThreadRepository struct {
	mock.Mock
}

func (m *ThreadRepository) Create(ctx context.Context, th *thread.Thread) error {
	args := m.Called(ctx, th)
	return args.Error(0)
}

func (m *ThreadRepository) Get(ctx context.Context, id string) (*thread.Thread, error) {
	args := m.Called(ctx, id)
	if th, ok := args.Get(0).(*thread.Thread); ok {
		return th, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ThreadRepository) UpdateStage(ctx context.Context, id string, stage thread.Stage, completedAt *time.Time) error {
	args := m.Called(ctx, id, stage, completedAt)
	return args.Error(0)
}

func (m *ThreadRepository) ListByOwner(ctx context.Context, ownerID string) ([]thread.Summary, error) {
	args := m.Called(ctx, ownerID)
	if list, ok := args.Get(0).([]thread.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ThreadRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MessageRepository is a mock for thread.MessageRepository.
type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) Append(ctx context.Context, msg *thread.Message) (int64, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepository) ListByThread(ctx context.Context, threadID string) ([]thread.Message, error) {
	args := m.Called(ctx, threadID)
	if msgs, ok := args.Get(0).([]thread.Message); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MessageRepository) CountByKind(ctx context.Context, threadID string, kind thread.MessageKind) (int, error) {
	args := m.Called(ctx, threadID, kind)
	return args.Int(0), args.Error(1)
}

// PlanRepository is a mock for plan.PlanRepository.
type PlanRepository struct {
	mock.Mock
}

func (m *PlanRepository) Create(ctx context.Context, p *plan.Plan) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *PlanRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*plan.Plan); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PlanRepository) GetByThread(ctx context.Context, threadID string) (*plan.Plan, error) {
	args := m.Called(ctx, threadID)
	if p, ok := args.Get(0).(*plan.Plan); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PlanRepository) MarkStep(ctx context.Context, planID, stepID string, completedAt time.Time) error {
	args := m.Called(ctx, planID, stepID, completedAt)
	return args.Error(0)
}

// PinRepository is a mock for pin.PinRepository.
type PinRepository struct {
	mock.Mock
}

func (m *PinRepository) Add(ctx context.Context, ownerID, threadID string) error {
	args := m.Called(ctx, ownerID, threadID)
	return args.Error(0)
}

func (m *PinRepository) Remove(ctx context.Context, ownerID, threadID string) error {
	args := m.Called(ctx, ownerID, threadID)
	return args.Error(0)
}

func (m *PinRepository) ListPinned(ctx context.Context, ownerID string) ([]thread.Summary, error) {
	args := m.Called(ctx, ownerID)
	if list, ok := args.Get(0).([]thread.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
