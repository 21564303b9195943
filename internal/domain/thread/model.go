package thread

import "time"

// Stage represents the lifecycle stage of an assessment thread
type Stage string

const (
	StageCreated         Stage = "created"
	StageAwaitingAnswers Stage = "awaiting_answers"
	StageScoring         Stage = "scoring"
	StageCompleted       Stage = "completed"
)

var stageOrder = map[Stage]int{
	StageCreated:         0,
	StageAwaitingAnswers: 1,
	StageScoring:         2,
	StageCompleted:       3,
}

// Before reports whether s comes strictly before other in the lifecycle.
func (s Stage) Before(other Stage) bool {
	return stageOrder[s] < stageOrder[other]
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stageOrder[s]
	return ok
}

// Context holds the parameters that seed item generation for a thread.
// Background carries plain text already extracted from an uploaded document.
type Context struct {
	Role       string `json:"role"`
	Company    string `json:"company,omitempty"`
	Background string `json:"background,omitempty"`
}

// Thread represents one assessment session
type Thread struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Context     Context    `json:"context"`
	Stage       Stage      `json:"stage"`
	ItemCount   int        `json:"item_count"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MessageKind identifies the type of a log entry
type MessageKind string

const (
	KindQuestion MessageKind = "question"
	KindAnswer   MessageKind = "answer"
	KindFeedback MessageKind = "feedback"
	KindPlan     MessageKind = "plan"
)

// Message is one entry in a thread's append-only log. Sequence is assigned
// at append time and defines total order within the thread. ItemIndex is
// 1-based and nil for plan entries; Score is set only on feedback entries.
type Message struct {
	ThreadID  string      `json:"thread_id"`
	Sequence  int64       `json:"sequence"`
	Kind      MessageKind `json:"kind"`
	ItemIndex *int        `json:"item_index,omitempty"`
	Content   string      `json:"content"`
	Score     *int        `json:"score,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// ItemScore pairs an item index with its feedback score.
type ItemScore struct {
	ItemIndex int `json:"item_index"`
	Score     int `json:"score"`
}

// Aggregate holds derived score totals for a thread. It is computed from
// feedback messages on read and never persisted.
type Aggregate struct {
	TotalScore   int         `json:"total_score"`
	AverageScore float64     `json:"average_score"`
	ItemScores   []ItemScore `json:"item_scores"`
}

// Summary is a compact per-thread view for listings and analytics.
type Summary struct {
	ThreadID      string     `json:"thread_id"`
	Role          string     `json:"role"`
	Company       string     `json:"company,omitempty"`
	Stage         Stage      `json:"stage"`
	ItemCount     int        `json:"item_count"`
	AnsweredCount int        `json:"answered_count"`
	TotalScore    float64    `json:"total_score"`
	AverageScore  float64    `json:"average_score"`
	Pinned        bool       `json:"pinned"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Status describes the observable state of a thread.
type Status struct {
	ThreadID    string     `json:"thread_id"`
	Stage       Stage      `json:"stage"`
	ItemCount   int        `json:"item_count"`
	Answered    int        `json:"answered"`
	Aggregate   *Aggregate `json:"aggregate,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
