package sim

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/cavework/cavework/pkg/job"
)

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the simulation logger; the board and miners derive theirs from it.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Simulation) { s.logger = logger }
}

// WithPriorities overrides the default category order.
func WithPriorities(order []*job.Category) Option {
	return func(s *Simulation) { s.priorities = order }
}

// WithTickDelay sleeps d between steps in Run.
func WithTickDelay(d time.Duration) Option {
	return func(s *Simulation) { s.tickDelay = d }
}

// WithCostWorkers bounds parallel cost estimation inside each allocation.
func WithCostWorkers(n int) Option {
	return func(s *Simulation) { s.costWorkers = n }
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(s *Simulation) { s.id = id }
}
