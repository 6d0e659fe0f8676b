package sim

import (
	"maps"
	"time"

	"github.com/cavework/cavework/pkg/board"
)

// Report summarises a run.
type Report struct {
	RunID     string         `json:"run_id"`
	Ticks     int            `json:"ticks"`
	Miners    int            `json:"miners"`
	Completed map[string]int `json:"completed"`
	Failed    map[string]int `json:"failed"`
	Pending   int            `json:"pending"`
	Stored    int            `json:"stored"`
	Quiescent bool           `json:"quiescent"`
	Board     board.Stats    `json:"board"`
	Duration  time.Duration  `json:"duration_ns"`
}

// TotalCompleted sums completed jobs over all categories.
func (r Report) TotalCompleted() int {
	n := 0
	for _, c := range r.Completed {
		n += c
	}
	return n
}

// Report returns the state of the run so far.
func (s *Simulation) Report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Report{
		RunID:     s.id,
		Ticks:     s.tick,
		Miners:    len(s.miners),
		Completed: maps.Clone(s.completed),
		Failed:    maps.Clone(s.failed),
		Pending:   s.board.Len(),
		Stored:    s.level.Stored(),
		Quiescent: s.quiescentLocked(),
		Board:     s.board.Stats(),
	}
}
