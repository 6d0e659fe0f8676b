package board

import (
	"runtime"

	"github.com/rs/zerolog"
)

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the board logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Board) {
		b.logger = logger.With().Str("component", "board").Logger()
	}
}

// WithCostWorkers bounds how many cost estimates one Allocate call runs in
// parallel. Values below 1 fall back to GOMAXPROCS.
func WithCostWorkers(n int) Option {
	return func(b *Board) {
		b.costWorkers = n
	}
}

func defaultCostWorkers() int {
	return runtime.GOMAXPROCS(0)
}
