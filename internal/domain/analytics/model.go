package analytics

// Summary holds aggregate statistics over one user's assessment threads.
// Score figures cover completed threads only.
type Summary struct {
	TotalThreads     int      `json:"total_threads"`
	CompletedThreads int      `json:"completed_threads"`
	AverageScore     float64  `json:"average_score"`
	BestScore        float64  `json:"best_score"`
	Roles            []string `json:"roles"`
	Companies        []string `json:"companies"`
}
