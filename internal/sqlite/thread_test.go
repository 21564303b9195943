package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeck/prepdeck/internal/domain/thread"
	"github.com/prepdeck/prepdeck/internal/repository"
	"github.com/stretchr/testify/require"
)

func newTestThread(ownerID string) *thread.Thread {
	return &thread.Thread{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Context: thread.Context{
			Role:    "Backend Engineer",
			Company: "Acme",
		},
		Stage:     thread.StageCreated,
		ItemCount: 3,
		CreatedAt: time.Now().UTC(),
	}
}

func TestThreadRepository_CreateAndGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewThreadRepository(db)
	ctx := context.Background()

	th := newTestThread("user1")
	th.Context.Background = "Five years of Go experience"
	require.NoError(t, repo.Create(ctx, th))

	got, err := repo.Get(ctx, th.ID)
	require.NoError(t, err)
	require.Equal(t, th.ID, got.ID)
	require.Equal(t, "user1", got.OwnerID)
	require.Equal(t, "Backend Engineer", got.Context.Role)
	require.Equal(t, "Acme", got.Context.Company)
	require.Equal(t, "Five years of Go experience", got.Context.Background)
	require.Equal(t, thread.StageCreated, got.Stage)
	require.Equal(t, 3, got.ItemCount)
	require.Nil(t, got.CompletedAt)
}

func TestThreadRepository_GetNotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewThreadRepository(db)

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestThreadRepository_CreateDuplicate(t *testing.T) {
	db := NewTestDB(t)
	repo := NewThreadRepository(db)
	ctx := context.Background()

	th := newTestThread("user1")
	require.NoError(t, repo.Create(ctx, th))
	require.ErrorIs(t, repo.Create(ctx, th), repository.ErrDuplicate)
}

func TestThreadRepository_UpdateStage(t *testing.T) {
	db := NewTestDB(t)
	repo := NewThreadRepository(db)
	ctx := context.Background()

	th := newTestThread("user1")
	require.NoError(t, repo.Create(ctx, th))

	require.NoError(t, repo.UpdateStage(ctx, th.ID, thread.StageAwaitingAnswers, nil))
	got, err := repo.Get(ctx, th.ID)
	require.NoError(t, err)
	require.Equal(t, thread.StageAwaitingAnswers, got.Stage)
	require.Nil(t, got.CompletedAt)

	now := time.Now().UTC()
	require.NoError(t, repo.UpdateStage(ctx, th.ID, thread.StageCompleted, &now))
	got, err = repo.Get(ctx, th.ID)
	require.NoError(t, err)
	require.Equal(t, thread.StageCompleted, got.Stage)
	require.NotNil(t, got.CompletedAt)
}

func TestThreadRepository_UpdateStageNotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewThreadRepository(db)

	err := repo.UpdateStage(context.Background(), "missing", thread.StageCompleted, nil)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestThreadRepository_ListByOwner(t *testing.T) {
	db := NewTestDB(t)
	threads := NewThreadRepository(db)
	messages := NewMessageRepository(db)
	ctx := context.Background()

	th1 := newTestThread("user1")
	th1.CreatedAt = time.Now().UTC().Add(-time.Hour)
	th2 := newTestThread("user1")
	other := newTestThread("user2")
	require.NoError(t, threads.Create(ctx, th1))
	require.NoError(t, threads.Create(ctx, th2))
	require.NoError(t, threads.Create(ctx, other))

	idx := 1
	score := 8
	_, err := messages.Append(ctx, &thread.Message{
		ThreadID: th1.ID, Kind: thread.KindQuestion, ItemIndex: &idx, Content: "q1",
	})
	require.NoError(t, err)
	_, err = messages.Append(ctx, &thread.Message{
		ThreadID: th1.ID, Kind: thread.KindAnswer, ItemIndex: &idx, Content: "a1",
	})
	require.NoError(t, err)
	_, err = messages.Append(ctx, &thread.Message{
		ThreadID: th1.ID, Kind: thread.KindFeedback, ItemIndex: &idx, Content: "f1", Score: &score,
	})
	require.NoError(t, err)

	summaries, err := threads.ListByOwner(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Newest first
	require.Equal(t, th2.ID, summaries[0].ThreadID)
	require.Equal(t, th1.ID, summaries[1].ThreadID)

	require.Equal(t, 1, summaries[1].AnsweredCount)
	require.Equal(t, float64(8), summaries[1].TotalScore)
	require.Equal(t, float64(8), summaries[1].AverageScore)
	require.False(t, summaries[1].Pinned)
}

func TestThreadRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	threads := NewThreadRepository(db)
	messages := NewMessageRepository(db)
	ctx := context.Background()

	th := newTestThread("user1")
	require.NoError(t, threads.Create(ctx, th))
	idx := 1
	_, err := messages.Append(ctx, &thread.Message{
		ThreadID: th.ID, Kind: thread.KindQuestion, ItemIndex: &idx, Content: "q1",
	})
	require.NoError(t, err)

	require.NoError(t, threads.Delete(ctx, th.ID))

	_, err = threads.Get(ctx, th.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	// Messages cascade
	msgs, err := messages.ListByThread(ctx, th.ID)
	require.NoError(t, err)
	require.Empty(t, msgs)

	require.ErrorIs(t, threads.Delete(ctx, th.ID), repository.ErrNotFound)
}
