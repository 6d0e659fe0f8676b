package board

import "sync/atomic"

// Stats is a point-in-time copy of the board counters. Unreachable and Empty
// count Allocate calls that came back empty for that reason.
type Stats struct {
	Enqueued     uint64 `json:"enqueued"`
	Ignored      uint64 `json:"ignored"`
	Claimed      uint64 `json:"claimed"`
	LostRaces    uint64 `json:"lost_races"`
	Unreachable  uint64 `json:"unreachable"`
	Empty        uint64 `json:"empty"`
	CostFailures uint64 `json:"cost_failures"`
}

type counters struct {
	enqueued     atomic.Uint64
	ignored      atomic.Uint64
	claimed      atomic.Uint64
	lostRaces    atomic.Uint64
	unreachable  atomic.Uint64
	empty        atomic.Uint64
	costFailures atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Enqueued:     c.enqueued.Load(),
		Ignored:      c.ignored.Load(),
		Claimed:      c.claimed.Load(),
		LostRaces:    c.lostRaces.Load(),
		Unreachable:  c.unreachable.Load(),
		Empty:        c.empty.Load(),
		CostFailures: c.costFailures.Load(),
	}
}
