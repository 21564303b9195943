package pin_test

import (
	"context"
	"testing"
	"time"

	"github.com/prepdeck/prepdeck/internal/domain/pin"
	"github.com/prepdeck/prepdeck/internal/domain/thread"
	"github.com/prepdeck/prepdeck/internal/repository"
	"github.com/prepdeck/prepdeck/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testThread(id, owner string, stage thread.Stage) *thread.Thread {
	th := &thread.Thread{
		ID:        id,
		OwnerID:   owner,
		Context:   thread.Context{Role: "Backend Engineer"},
		Stage:     stage,
		ItemCount: 3,
		CreatedAt: time.Now(),
	}
	if stage == thread.StageCompleted {
		now := time.Now()
		th.CompletedAt = &now
	}
	return th
}

func TestPinService_Pin(t *testing.T) {
	pinsRepo := &mocks.PinRepository{}
	threadsRepo := &mocks.ThreadRepository{}

	threadsRepo.On("Get", mock.Anything, "t1").Return(testThread("t1", "user1", thread.StageCompleted), nil)
	pinsRepo.On("Add", mock.Anything, "user1", "t1").Return(nil)

	svc := pin.NewService(pinsRepo, threadsRepo, nil)
	require.NoError(t, svc.Pin(context.Background(), "user1", "t1"))
}

func TestPinService_Pin_Idempotent(t *testing.T) {
	pinsRepo := &mocks.PinRepository{}
	threadsRepo := &mocks.ThreadRepository{}

	threadsRepo.On("Get", mock.Anything, "t1").Return(testThread("t1", "user1", thread.StageCompleted), nil)
	pinsRepo.On("Add", mock.Anything, "user1", "t1").Return(repository.ErrDuplicate)

	svc := pin.NewService(pinsRepo, threadsRepo, nil)
	require.NoError(t, svc.Pin(context.Background(), "user1", "t1"))
}

func TestPinService_Pin_Errors(t *testing.T) {
	pinsRepo := &mocks.PinRepository{}
	threadsRepo := &mocks.ThreadRepository{}

	threadsRepo.On("Get", mock.Anything, "t1").Return(testThread("t1", "user1", thread.StageAwaitingAnswers), nil)
	threadsRepo.On("Get", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

	svc := pin.NewService(pinsRepo, threadsRepo, nil)
	ctx := context.Background()

	require.ErrorIs(t, svc.Pin(ctx, "user1", "t1"), pin.ErrNotCompleted)
	require.ErrorIs(t, svc.Pin(ctx, "user1", "missing"), pin.ErrNotFound)
	require.ErrorIs(t, svc.Pin(ctx, "intruder", "t1"), pin.ErrForbidden)
}

func TestPinService_Unpin_Idempotent(t *testing.T) {
	pinsRepo := &mocks.PinRepository{}
	threadsRepo := &mocks.ThreadRepository{}

	threadsRepo.On("Get", mock.Anything, "t1").Return(testThread("t1", "user1", thread.StageCompleted), nil)
	pinsRepo.On("Remove", mock.Anything, "user1", "t1").Return(repository.ErrNotFound)

	svc := pin.NewService(pinsRepo, threadsRepo, nil)
	require.NoError(t, svc.Unpin(context.Background(), "user1", "t1"))
}

func TestPinService_ListPinned(t *testing.T) {
	pinsRepo := &mocks.PinRepository{}
	threadsRepo := &mocks.ThreadRepository{}

	pinsRepo.On("ListPinned", mock.Anything, "user1").Return([]thread.Summary{
		{ThreadID: "t1", Role: "Backend Engineer", Pinned: true},
	}, nil)

	svc := pin.NewService(pinsRepo, threadsRepo, nil)
	summaries, err := svc.ListPinned(context.Background(), "user1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.True(t, summaries[0].Pinned)
}
