// Copyright 2025 Cavework Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package board implements the job board: the prioritized, concurrently
// accessible set of pending jobs and the allocation algorithm that hands each
// job to exactly one actor.
//
// Locking discipline: the category scan and cost evaluation run under the
// read lock, so many actors may cost jobs at once. Enqueue and the final claim
// run under the write lock, which is what makes a claim exclusive.
package board

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cavework/cavework/pkg/job"
)

// Board owns pending jobs grouped by category.
type Board struct {
	mu         sync.RWMutex
	registry   *job.Registry
	priorities []*job.Category
	pending    map[*job.Category]map[job.Job]uint64
	seq        uint64

	costWorkers int
	logger      zerolog.Logger
	stats       counters
}

// New builds a board whose categories are considered in the given order.
// priorities must name every category of registry exactly once.
func New(registry *job.Registry, priorities []*job.Category, opts ...Option) (*Board, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: registry is nil", ErrInvalidPriorities)
	}
	if len(priorities) == 0 {
		return nil, fmt.Errorf("%w: no categories given", ErrInvalidPriorities)
	}

	pending := make(map[*job.Category]map[job.Job]uint64, len(priorities))
	for i, c := range priorities {
		if c == nil {
			return nil, fmt.Errorf("%w: priority %d is nil", ErrInvalidPriorities, i)
		}
		if !registry.Contains(c) {
			return nil, fmt.Errorf("%w: %s is not registered", ErrInvalidPriorities, c)
		}
		if _, dup := pending[c]; dup {
			return nil, fmt.Errorf("%w: %s listed twice", ErrInvalidPriorities, c)
		}
		pending[c] = make(map[job.Job]uint64)
	}
	for _, c := range registry.Categories() {
		if _, ok := pending[c]; !ok {
			return nil, fmt.Errorf("%w: %s has no priority", ErrInvalidPriorities, c)
		}
	}

	b := &Board{
		registry:    registry,
		priorities:  append([]*job.Category(nil), priorities...),
		pending:     pending,
		costWorkers: defaultCostWorkers(),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.costWorkers < 1 {
		b.costWorkers = defaultCostWorkers()
	}
	return b, nil
}

// MustNew is New for startup wiring; it panics on error.
func MustNew(registry *job.Registry, priorities []*job.Category, opts ...Option) *Board {
	b, err := New(registry, priorities, opts...)
	if err != nil {
		panic(err)
	}
	return b
}

// Priorities returns the category order, highest priority first.
func (b *Board) Priorities() []*job.Category {
	return append([]*job.Category(nil), b.priorities...)
}

// Enqueue makes j visible to later Allocate calls.
//
// A nil job, an unregistered kind or a category foreign to this board are
// wiring defects and panic. A job that is not fresh (already pending, claimed
// or retired) is ignored.
func (b *Board) Enqueue(j job.Job) {
	if j == nil {
		panic("board: enqueue of nil job")
	}
	category := b.registry.CategoryOf(j)

	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.pending[category]
	if !ok {
		panic(fmt.Errorf("%w: %s", ErrUnknownCategory, category))
	}
	if !j.Lifecycle().MarkPending() {
		b.stats.ignored.Add(1)
		b.logger.Debug().
			Str("category", category.String()).
			Str("state", j.Lifecycle().State().String()).
			Msg("Ignoring enqueue of job that is not new")
		return
	}

	b.seq++
	set[j] = b.seq
	b.stats.enqueued.Add(1)
}

// HasPending reports whether every category has at least one pending job.
// This is a saturation check, not "is there any work"; see AnyPending.
func (b *Board) HasPending() bool {
	return b.AllCategoriesPending()
}

// AllCategoriesPending reports whether no category's pending set is empty.
func (b *Board) AllCategoriesPending() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, c := range b.priorities {
		if len(b.pending[c]) == 0 {
			return false
		}
	}
	return true
}

// AnyPending reports whether at least one job is pending anywhere.
func (b *Board) AnyPending() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, c := range b.priorities {
		if len(b.pending[c]) > 0 {
			return true
		}
	}
	return false
}

// Pending returns the number of pending jobs in category c.
func (b *Board) Pending(c *job.Category) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.pending[c])
}

// Len returns the number of pending jobs across all categories.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, set := range b.pending {
		n += len(set)
	}
	return n
}

// Stats returns a copy of the board counters.
func (b *Board) Stats() Stats {
	return b.stats.snapshot()
}

type candidate struct {
	job  job.Job
	seq  uint64
	cost job.Cost
	ok   bool
}

// Allocate makes one attempt to hand actor a job.
//
// It returns (nil, nil) when there is nothing to do: the board is empty, every
// job of the highest non-empty category is unreachable for this actor, or a
// concurrent caller claimed the chosen job first. Lower-priority categories
// are never consulted while a higher one has pending jobs. A failing cost
// estimate is returned wrapped in ErrCostEstimation.
//
// On success the job is in the Claimed state and the board holds no further
// reference to it.
func (b *Board) Allocate(ctx context.Context, actor job.Actor) (job.Job, error) {
	if actor == nil {
		panic("board: allocate for nil actor")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	category, chosen, err := b.choose(ctx, actor)
	if err != nil {
		b.stats.costFailures.Add(1)
		return nil, err
	}
	if chosen == nil {
		return nil, nil
	}
	return b.claim(category, chosen, actor), nil
}

// choose runs the read-only half of Allocate: category scan and costing.
func (b *Board) choose(ctx context.Context, actor job.Actor) (*job.Category, job.Job, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var category *job.Category
	for _, c := range b.priorities {
		if len(b.pending[c]) > 0 {
			category = c
			break
		}
	}
	if category == nil {
		b.stats.empty.Add(1)
		return nil, nil, nil
	}

	set := b.pending[category]
	candidates := make([]candidate, 0, len(set))
	for j, seq := range set {
		candidates = append(candidates, candidate{job: j, seq: seq})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.costWorkers)
	for i := range candidates {
		c := &candidates[i]
		g.Go(func() error {
			cost, ok, err := c.job.EstimateCost(gctx, actor)
			if err != nil {
				return fmt.Errorf("%w: %s job for actor %s: %w", ErrCostEstimation, category, actor.ID(), err)
			}
			c.cost, c.ok = cost, ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var best *candidate
	for i := range candidates {
		c := &candidates[i]
		if !c.ok {
			continue
		}
		if best == nil || c.cost < best.cost || (c.cost == best.cost && c.seq < best.seq) {
			best = c
		}
	}
	if best == nil {
		b.stats.unreachable.Add(1)
		b.logger.Debug().
			Str("actor", actor.ID()).
			Str("category", category.String()).
			Int("candidates", len(candidates)).
			Msg("No reachable job in highest priority category")
		return nil, nil, nil
	}
	return category, best.job, nil
}

// claim removes j from category under the write lock if it is still there.
func (b *Board) claim(category *job.Category, j job.Job, actor job.Actor) job.Job {
	b.mu.Lock()
	defer b.mu.Unlock()

	set := b.pending[category]
	if _, ok := set[j]; !ok {
		b.stats.lostRaces.Add(1)
		b.logger.Debug().
			Str("actor", actor.ID()).
			Str("category", category.String()).
			Msg("Job claimed by another actor")
		return nil
	}
	delete(set, j)

	if !j.Lifecycle().MarkClaimed() {
		// Pending membership implies the Pending state; anything else means
		// the lifecycle was driven from outside the board.
		b.stats.lostRaces.Add(1)
		b.logger.Warn().
			Str("category", category.String()).
			Str("state", j.Lifecycle().State().String()).
			Msg("Dropping pending job with unexpected state")
		return nil
	}

	b.stats.claimed.Add(1)
	b.logger.Debug().
		Str("actor", actor.ID()).
		Str("category", category.String()).
		Msg("Job claimed")
	return j
}
