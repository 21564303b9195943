package thread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prepdeck/prepdeck/internal/repository"
)

const (
	// DefaultItemCount is used when a start request doesn't specify one.
	DefaultItemCount = 3
	// MaxItemCount bounds the number of items per thread.
	MaxItemCount = 10
)

// Service owns the stage machine for assessment threads.
type Service struct {
	threads      ThreadRepository
	messages     MessageRepository
	extractor    Extractor
	logger       *slog.Logger
	defaultItems int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultItemCount overrides the item count used when a start request
// doesn't specify one.
func WithDefaultItemCount(n int) Option {
	return func(s *Service) {
		if n >= 1 && n <= MaxItemCount {
			s.defaultItems = n
		}
	}
}

// NewService creates a new thread service.
func NewService(threads ThreadRepository, messages MessageRepository, extractor Extractor, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		threads:      threads,
		messages:     messages,
		extractor:    extractor,
		logger:       logger,
		defaultItems: DefaultItemCount,
		locks:        make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartRequest describes a new assessment session.
type StartRequest struct {
	Context   Context
	ItemCount int
}

// StartResult holds the created thread and its generated questions.
type StartResult struct {
	Thread    *Thread  `json:"thread"`
	Questions []string `json:"questions"`
}

// SubmitResult describes the outcome of one answer submission.
type SubmitResult struct {
	ThreadID  string     `json:"thread_id"`
	ItemIndex int        `json:"item_index"`
	Stage     Stage      `json:"stage"`
	Score     int        `json:"score"`
	Feedback  string     `json:"feedback"`
	Completed bool       `json:"completed"`
	Aggregate *Aggregate `json:"aggregate,omitempty"`
}

// Start creates a thread, generates its question set and moves it to
// awaiting_answers. Question generation goes through the extractor, which
// falls back to templates on provider failure, so Start only fails on
// storage errors.
func (s *Service) Start(ctx context.Context, ownerID string, req StartRequest) (*StartResult, error) {
	if ownerID == "" || strings.TrimSpace(req.Context.Role) == "" {
		return nil, ErrInvalidInput
	}

	itemCount := req.ItemCount
	if itemCount == 0 {
		itemCount = s.defaultItems
	}
	if itemCount < 1 || itemCount > MaxItemCount {
		return nil, ErrInvalidInput
	}

	th := &Thread{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Context:   req.Context,
		Stage:     StageCreated,
		ItemCount: itemCount,
		CreatedAt: time.Now(),
	}
	if err := s.threads.Create(ctx, th); err != nil {
		return nil, fmt.Errorf("creating thread: %w", err)
	}

	questions := s.extractor.Questions(ctx, th.Context, itemCount)
	for i, q := range questions {
		idx := i + 1
		if _, err := s.messages.Append(ctx, &Message{
			ThreadID:  th.ID,
			Kind:      KindQuestion,
			ItemIndex: &idx,
			Content:   q,
		}); err != nil {
			return nil, fmt.Errorf("appending question %d: %w", idx, err)
		}
	}

	if err := s.threads.UpdateStage(ctx, th.ID, StageAwaitingAnswers, nil); err != nil {
		return nil, fmt.Errorf("advancing stage: %w", err)
	}
	th.Stage = StageAwaitingAnswers

	s.logger.Info("thread started", "thread_id", th.ID, "items", itemCount, "role", th.Context.Role)

	return &StartResult{Thread: th, Questions: questions}, nil
}

// SubmitAnswer appends the answer, scores it synchronously and, when the
// last item is answered, synthesizes the improvement plan and completes the
// thread. Extractor calls and the appends that follow them run detached from
// the caller's cancellation so a dropped connection can't leave an answer
// without feedback.
func (s *Service) SubmitAnswer(ctx context.Context, ownerID, threadID string, itemIndex int, answerText string) (*SubmitResult, error) {
	if strings.TrimSpace(answerText) == "" {
		return nil, ErrInvalidInput
	}

	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	th, err := s.getOwned(ctx, ownerID, threadID)
	if err != nil {
		return nil, err
	}
	if th.Stage != StageAwaitingAnswers {
		return nil, ErrInvalidState
	}
	if itemIndex < 1 || itemIndex > th.ItemCount {
		return nil, ErrItemOutOfRange
	}

	history, err := s.messages.ListByThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	var question string
	answered := 0
	for _, msg := range history {
		if msg.ItemIndex == nil {
			continue
		}
		switch msg.Kind {
		case KindQuestion:
			if *msg.ItemIndex == itemIndex {
				question = msg.Content
			}
		case KindAnswer:
			if *msg.ItemIndex == itemIndex {
				return nil, ErrDuplicateAnswer
			}
			answered++
		}
	}
	if question == "" {
		return nil, fmt.Errorf("no question recorded for item %d", itemIndex)
	}

	// Persist everything on a detached context from here on.
	dctx := context.WithoutCancel(ctx)

	answerMsg := &Message{
		ThreadID:  threadID,
		Kind:      KindAnswer,
		ItemIndex: &itemIndex,
		Content:   answerText,
	}
	if _, err := s.messages.Append(dctx, answerMsg); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateAnswer
		}
		return nil, fmt.Errorf("appending answer: %w", err)
	}
	answered++

	score, feedback := s.extractor.ScoreAnswer(dctx, th.Context, question, answerText)
	feedbackMsg := &Message{
		ThreadID:  threadID,
		Kind:      KindFeedback,
		ItemIndex: &itemIndex,
		Content:   feedback,
		Score:     &score,
	}
	if _, err := s.messages.Append(dctx, feedbackMsg); err != nil {
		return nil, fmt.Errorf("appending feedback: %w", err)
	}

	result := &SubmitResult{
		ThreadID:  threadID,
		ItemIndex: itemIndex,
		Stage:     StageAwaitingAnswers,
		Score:     score,
		Feedback:  feedback,
	}

	if answered < th.ItemCount {
		return result, nil
	}

	// Last item: run the aggregate plan synthesis as the tail of this call.
	if err := s.threads.UpdateStage(dctx, threadID, StageScoring, nil); err != nil {
		return nil, fmt.Errorf("advancing stage: %w", err)
	}

	history = append(history, *answerMsg, *feedbackMsg)
	planContent := s.extractor.Plan(dctx, th.Context, history)
	if _, err := s.messages.Append(dctx, &Message{
		ThreadID: threadID,
		Kind:     KindPlan,
		Content:  planContent,
	}); err != nil {
		return nil, fmt.Errorf("appending plan: %w", err)
	}

	now := time.Now()
	if err := s.threads.UpdateStage(dctx, threadID, StageCompleted, &now); err != nil {
		return nil, fmt.Errorf("completing thread: %w", err)
	}

	result.Stage = StageCompleted
	result.Completed = true
	result.Aggregate = aggregateFromHistory(history)

	// A completed thread accepts no further answers, so its lock entry can go.
	s.releaseThreadLock(threadID)

	s.logger.Info("thread completed", "thread_id", threadID, "total_score", result.Aggregate.TotalScore)

	return result, nil
}

// GetStatus returns the observable state of a thread. It never mutates the
// stage; the aggregate is included once any feedback exists.
func (s *Service) GetStatus(ctx context.Context, ownerID, threadID string) (*Status, error) {
	th, err := s.getOwned(ctx, ownerID, threadID)
	if err != nil {
		return nil, err
	}

	history, err := s.messages.ListByThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	answered := 0
	for _, msg := range history {
		if msg.Kind == KindAnswer {
			answered++
		}
	}

	status := &Status{
		ThreadID:    th.ID,
		Stage:       th.Stage,
		ItemCount:   th.ItemCount,
		Answered:    answered,
		CreatedAt:   th.CreatedAt,
		CompletedAt: th.CompletedAt,
	}
	if agg := aggregateFromHistory(history); len(agg.ItemScores) > 0 {
		status.Aggregate = agg
	}
	return status, nil
}

// GetHistory returns the full ordered message log for a thread.
func (s *Service) GetHistory(ctx context.Context, ownerID, threadID string) ([]Message, error) {
	if _, err := s.getOwned(ctx, ownerID, threadID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return msgs, nil
}

// GetAggregate computes score totals from the thread's feedback entries.
func (s *Service) GetAggregate(ctx context.Context, ownerID, threadID string) (*Aggregate, error) {
	if _, err := s.getOwned(ctx, ownerID, threadID); err != nil {
		return nil, err
	}
	history, err := s.messages.ListByThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return aggregateFromHistory(history), nil
}

// ListByOwner returns summaries of all threads owned by a user.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Summary, error) {
	if ownerID == "" {
		return nil, ErrInvalidInput
	}
	return s.threads.ListByOwner(ctx, ownerID)
}

// Delete removes a thread and its entire message log. Deleting an unknown
// thread fails with ErrThreadNotFound, so a second delete is an error.
func (s *Service) Delete(ctx context.Context, ownerID, threadID string) error {
	if _, err := s.getOwned(ctx, ownerID, threadID); err != nil {
		return err
	}
	if err := s.threads.Delete(ctx, threadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrThreadNotFound
		}
		return fmt.Errorf("deleting thread: %w", err)
	}
	s.releaseThreadLock(threadID)
	s.logger.Info("thread deleted", "thread_id", threadID)
	return nil
}

func (s *Service) getOwned(ctx context.Context, ownerID, threadID string) (*Thread, error) {
	if threadID == "" {
		return nil, ErrInvalidInput
	}
	th, err := s.threads.Get(ctx, threadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("loading thread: %w", err)
	}
	if th.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return th, nil
}

func (s *Service) threadLock(threadID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[threadID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[threadID] = lock
	}
	return lock
}

// releaseThreadLock drops the lock entry for a thread that can take no more
// submissions. Late callers get a fresh mutex and fail on the stage check,
// with the storage-level uniqueness constraint as the backstop.
func (s *Service) releaseThreadLock(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, threadID)
}

func aggregateFromHistory(history []Message) *Aggregate {
	agg := &Aggregate{}
	for _, msg := range history {
		if msg.Kind != KindFeedback || msg.Score == nil || msg.ItemIndex == nil {
			continue
		}
		agg.TotalScore += *msg.Score
		agg.ItemScores = append(agg.ItemScores, ItemScore{ItemIndex: *msg.ItemIndex, Score: *msg.Score})
	}
	if len(agg.ItemScores) > 0 {
		agg.AverageScore = float64(agg.TotalScore) / float64(len(agg.ItemScores))
	}
	return agg
}
