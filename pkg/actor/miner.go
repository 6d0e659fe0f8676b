// Copyright 2025 Cavework Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package actor implements the miners that claim jobs from the board and
// carry them out on a level.
package actor

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cavework/cavework/pkg/job"
	"github.com/cavework/cavework/pkg/jobs"
	"github.com/cavework/cavework/pkg/level"
)

// ReleaseFunc observes a job leaving a miner. success is false when the job failed.
type ReleaseFunc func(m *Miner, j job.Job, success bool)

// Miner walks the level, claims one job at a time and works it tick by tick.
//
// A Miner is driven from a single goroutine. Its read accessors may be called
// concurrently with each other (cost estimation does), but not with Tick,
// Assign or Release.
type Miner struct {
	id    string
	level *level.Level
	pos   level.TilePos
	nav   []level.TilePos
	job   job.Job
	held  *level.Resource
	retry bool

	ctx       context.Context
	onRelease ReleaseFunc
	logger    zerolog.Logger
}

var _ jobs.Worker = (*Miner)(nil)

// Option configures a Miner.
type Option func(*Miner)

// WithLogger sets the miner logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Miner) { m.logger = logger }
}

// WithReleaseHook registers fn to run whenever a job is released.
func WithReleaseHook(fn ReleaseFunc) Option {
	return func(m *Miner) { m.onRelease = fn }
}

// WithID overrides the generated id.
func WithID(id string) Option {
	return func(m *Miner) { m.id = id }
}

// NewMiner places a miner on lvl at pos.
func NewMiner(lvl *level.Level, pos level.TilePos, opts ...Option) *Miner {
	m := &Miner{
		id:     uuid.NewString(),
		level:  lvl,
		pos:    pos,
		ctx:    context.Background(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With().Str("component", "miner").Str("miner", m.id).Logger()
	return m
}

func (m *Miner) ID() string               { return m.id }
func (m *Miner) Context() context.Context { return m.ctx }
func (m *Miner) Level() *level.Level      { return m.level }
func (m *Miner) Position() level.TilePos  { return m.pos }
func (m *Miner) Holding() *level.Resource { return m.held }
func (m *Miner) Job() job.Job             { return m.job }
func (m *Miner) Navigating() bool         { return len(m.nav) > 0 }

// Idle reports whether the miner has no job.
func (m *Miner) Idle() bool { return m.job == nil }

// WantsRetry reports whether the last job failed and the miner should be
// offered a replacement straight away. Reading it clears the flag.
func (m *Miner) WantsRetry() bool {
	r := m.retry
	m.retry = false
	return r
}

// Assign hands a claimed job to the miner and starts it.
func (m *Miner) Assign(j job.Job) bool {
	if m.job != nil || !j.Lifecycle().MarkActive() {
		return false
	}
	m.job = j
	m.retry = false
	m.logger.Debug().Stringer("job", describe(j)).Msg("Job started")
	j.Start(m)
	return true
}

// Tick advances navigation by one tile and then works the current job.
func (m *Miner) Tick(ctx context.Context) {
	m.ctx = ctx
	defer func() { m.ctx = context.Background() }()

	m.step()
	if m.job != nil {
		m.job.Tick(m)
	}
}

func (m *Miner) step() {
	if len(m.nav) == 0 {
		return
	}
	next := m.nav[0]
	if !m.pos.IsAdjacentTo(next) || !m.level.Tile(next).Passable() {
		// The world changed under the path; the job re-plans.
		m.nav = nil
		return
	}
	m.nav = m.nav[1:]
	m.pos = next
}

// Navigate plans a path to goal and replaces the current one.
func (m *Miner) Navigate(goal level.TilePos) bool {
	path, ok := m.level.Pathfinder().FindPath(m.pos, goal)
	return m.follow(path, ok)
}

// NavigateToSide plans a path onto goal, or next to it when goal is a wall.
func (m *Miner) NavigateToSide(goal level.TilePos) bool {
	path, ok := m.level.Pathfinder().FindCheapestPathToSide(m.pos, goal)
	return m.follow(path, ok)
}

func (m *Miner) follow(path level.Path, ok bool) bool {
	if !ok {
		return false
	}
	m.nav = path.Steps
	return true
}

// Pickup takes r when the miner's hands are empty.
func (m *Miner) Pickup(r *level.Resource) bool {
	if m.held != nil || !r.TryHold() {
		return false
	}
	m.held = r
	return true
}

// Release retires j. A failed job leaves the miner flagged for an immediate
// replacement and puts down anything it was carrying. Released jobs are never
// returned to the board.
func (m *Miner) Release(j job.Job, retry bool) {
	if j == nil || j != m.job {
		return
	}
	if !j.Lifecycle().Retire(!retry) {
		return
	}
	m.job = nil
	m.nav = nil
	m.retry = retry

	if m.held != nil {
		if m.held.Held() {
			m.level.Drop(m.ctx, m.held, m.pos)
		}
		m.held = nil
	}

	ev := m.logger.Debug()
	if retry {
		ev = m.logger.Info()
	}
	ev.Stringer("job", describe(j)).Bool("success", !retry).Msg("Job released")

	if m.onRelease != nil {
		m.onRelease(m, j, !retry)
	}
}

type stringer struct{ j job.Job }

func (s stringer) String() string {
	if v, ok := s.j.(interface{ String() string }); ok {
		return v.String()
	}
	return string(s.j.Kind())
}

func describe(j job.Job) stringer { return stringer{j} }
