// Copyright 2025 Cavework Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package sim drives a cave: miners claim jobs from a board, work them on the
// level, and level events feed new jobs back into the board.
//
// Each step has two phases. Idle miners allocate concurrently, then every
// miner ticks in spawn order so world changes stay deterministic.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cavework/cavework/pkg/actor"
	"github.com/cavework/cavework/pkg/board"
	"github.com/cavework/cavework/pkg/event"
	"github.com/cavework/cavework/pkg/job"
	"github.com/cavework/cavework/pkg/jobs"
	"github.com/cavework/cavework/pkg/level"
)

// Event names published by the simulation.
const (
	EventStep     = "sim.step"
	EventComplete = "sim.complete"
)

// ErrNoMiners is returned when a simulation is built without spawn points.
var ErrNoMiners = errors.New("simulation has no miners")

// Simulation owns the board and miners of one level.
type Simulation struct {
	id       string
	level    *level.Level
	registry *job.Registry
	board    *board.Board
	miners   []*actor.Miner
	bus      *event.Bus

	logger      zerolog.Logger
	tickDelay   time.Duration
	costWorkers int
	priorities  []*job.Category

	mu        sync.Mutex
	tick      int
	stalled   bool
	mining    map[level.TilePos]*jobs.MiningJob
	hauling   map[*level.Resource]*jobs.HaulJob
	completed map[string]int
	failed    map[string]int
}

// New wires a simulation. bus must be the bus lvl publishes on; the
// simulation subscribes to it to produce jobs. One miner is placed on each
// spawn point.
func New(lvl *level.Level, bus *event.Bus, registry *job.Registry, spawns []level.TilePos, opts ...Option) (*Simulation, error) {
	if len(spawns) == 0 {
		return nil, ErrNoMiners
	}
	s := &Simulation{
		id:        uuid.NewString(),
		level:     lvl,
		registry:  registry,
		bus:       bus,
		logger:    zerolog.Nop(),
		mining:    make(map[level.TilePos]*jobs.MiningJob),
		hauling:   make(map[*level.Resource]*jobs.HaulJob),
		completed: make(map[string]int),
		failed:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "sim").Str("run_id", s.id).Logger()

	if s.priorities == nil {
		order, err := jobs.DefaultPriorities(registry)
		if err != nil {
			return nil, err
		}
		s.priorities = order
	}
	boardOpts := []board.Option{board.WithLogger(s.logger)}
	if s.costWorkers > 0 {
		boardOpts = append(boardOpts, board.WithCostWorkers(s.costWorkers))
	}
	b, err := board.New(registry, s.priorities, boardOpts...)
	if err != nil {
		return nil, err
	}
	s.board = b

	for _, pos := range spawns {
		if !lvl.Tile(pos).Passable() {
			return nil, fmt.Errorf("spawn point %s is not passable", pos)
		}
		s.miners = append(s.miners, actor.NewMiner(lvl, pos,
			actor.WithLogger(s.logger),
			actor.WithReleaseHook(s.released),
		))
	}

	s.subscribe()
	s.seed()
	return s, nil
}

// ID returns the run id.
func (s *Simulation) ID() string { return s.id }

// Board returns the job board.
func (s *Simulation) Board() *board.Board { return s.board }

// Level returns the simulated level.
func (s *Simulation) Level() *level.Level { return s.level }

// Miners returns the miners in tick order.
func (s *Simulation) Miners() []*actor.Miner {
	return append([]*actor.Miner(nil), s.miners...)
}

func (s *Simulation) subscribe() {
	if s.bus == nil {
		return
	}
	s.bus.Subscribe(level.EventWallExposed, func(_ context.Context, data any) {
		if e, ok := data.(level.WallExposed); ok {
			s.ensureMining(e.Pos, e.Tile)
		}
	})
	s.bus.Subscribe(level.EventResourceSpawned, func(_ context.Context, data any) {
		if e, ok := data.(level.ResourceSpawned); ok {
			s.ensureHauling(e.Resource)
		}
	})
	// New ground or a new store room can connect resources that had nowhere
	// to go.
	s.bus.Subscribe(level.EventTileChanged, func(_ context.Context, data any) {
		e, ok := data.(level.TileChanged)
		if !ok {
			return
		}
		if (!e.From.Passable() && e.To.Passable()) || e.To == level.TileStoreRoom {
			for _, r := range s.level.Resources() {
				s.ensureHauling(r)
			}
		}
	})
}

// seed enqueues jobs for the level as it stands.
func (s *Simulation) seed() {
	for _, pos := range s.level.ExposedMineable() {
		s.ensureMining(pos, s.level.Tile(pos))
	}
	for _, r := range s.level.Resources() {
		if r.Available() {
			s.ensureHauling(r)
		}
	}
}

func (s *Simulation) ensureMining(pos level.TilePos, tile level.Tile) {
	if !tile.Mineable() || s.level.Tile(pos) != tile {
		return
	}
	s.mu.Lock()
	if live, ok := s.mining[pos]; ok && !live.Lifecycle().State().Retired() {
		s.mu.Unlock()
		return
	}
	j := jobs.NewMiningJob(tile, pos)
	s.mining[pos] = j
	s.mu.Unlock()

	s.board.Enqueue(j)
}

// ensureHauling posts a haul job for r unless one is live. Resources with no
// reachable store room are left on the floor until the cave opens up.
func (s *Simulation) ensureHauling(r *level.Resource) {
	if !r.Available() {
		return
	}
	if !jobs.StoreReachable(s.level, r.Pos()) {
		s.logger.Debug().Str("resource", r.ID()).Stringer("pos", r.Pos()).Msg("No store room reachable, not hauling")
		return
	}
	s.mu.Lock()
	if live, ok := s.hauling[r]; ok && !live.Lifecycle().State().Retired() {
		s.mu.Unlock()
		return
	}
	j := jobs.NewHaulJob(r)
	s.hauling[r] = j
	s.mu.Unlock()

	s.board.Enqueue(j)
}

// released books a finished job and replaces jobs that failed while their
// target is still there.
func (s *Simulation) released(_ *actor.Miner, j job.Job, success bool) {
	name := s.registry.CategoryOf(j).String()

	s.mu.Lock()
	if success {
		s.completed[name]++
	} else {
		s.failed[name]++
	}
	switch v := j.(type) {
	case *jobs.MiningJob:
		if s.mining[v.Pos] == v {
			delete(s.mining, v.Pos)
		}
	case *jobs.HaulJob:
		if s.hauling[v.Resource] == v {
			delete(s.hauling, v.Resource)
		}
	}
	s.mu.Unlock()

	if success {
		return
	}
	switch v := j.(type) {
	case *jobs.MiningJob:
		s.ensureMining(v.Pos, v.Tile)
	case *jobs.HaulJob:
		s.ensureHauling(v.Resource)
	}
}

// Step runs one allocation phase and one tick phase. A broken cost estimate
// aborts the step before any miner ticks.
func (s *Simulation) Step(ctx context.Context) error {
	idle := s.idle()
	claims, err := s.allocate(ctx, idle)
	if err != nil {
		return err
	}

	for _, m := range s.miners {
		m.Tick(ctx)
	}

	// Miners whose job failed this tick get their replacement now.
	var retry []*actor.Miner
	for _, m := range s.miners {
		if m.WantsRetry() && m.Idle() {
			retry = append(retry, m)
		}
	}
	n, err := s.allocate(ctx, retry)
	if err != nil {
		return err
	}

	s.mu.Lock()
	// Nobody worked and nobody got work: the world cannot change any more.
	s.stalled = len(idle) == len(s.miners) && claims+n == 0
	s.tick++
	tick := s.tick
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(ctx, EventStep, tick)
	}
	return nil
}

func (s *Simulation) idle() []*actor.Miner {
	var out []*actor.Miner
	for _, m := range s.miners {
		if m.Idle() {
			out = append(out, m)
		}
	}
	return out
}

// allocate asks the board for a job for every miner in parallel, then
// assigns the results in miner order. It returns how many jobs were handed out.
func (s *Simulation) allocate(ctx context.Context, miners []*actor.Miner) (int, error) {
	if len(miners) == 0 {
		return 0, nil
	}
	claimed := make([]job.Job, len(miners))

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range miners {
		i, m := i, m
		g.Go(func() error {
			j, err := s.board.Allocate(gctx, m)
			if err != nil {
				return fmt.Errorf("allocate for miner %s: %w", m.ID(), err)
			}
			claimed[i] = j
			return nil
		})
	}
	err := g.Wait()

	// Jobs claimed before a failure are still handed out; the board no longer
	// holds them.
	assigned := 0
	for i, j := range claimed {
		if j == nil {
			continue
		}
		if !miners[i].Assign(j) {
			s.logger.Warn().Str("miner", miners[i].ID()).Msg("Miner refused claimed job")
			if j.Lifecycle().Retire(false) {
				s.released(miners[i], j, false)
			}
			continue
		}
		assigned++
	}
	return assigned, err
}

// Quiescent reports whether nothing is left to do: every miner is idle and
// either the board is empty or the last step started with everyone idle and
// handed out no job. Unreachable jobs stay pending, so the second case is what
// ends most runs.
func (s *Simulation) Quiescent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiescentLocked()
}

func (s *Simulation) quiescentLocked() bool {
	for _, m := range s.miners {
		if !m.Idle() {
			return false
		}
	}
	return s.stalled || !s.board.AnyPending()
}

// Run steps the simulation up to ticks times, or until it goes quiet when
// untilIdle is set. The tick delay, if any, is slept between steps.
func (s *Simulation) Run(ctx context.Context, ticks int, untilIdle bool) (Report, error) {
	start := time.Now()
	s.logger.Info().Int("ticks", ticks).Int("miners", len(s.miners)).Msg("Simulation started")

	var runErr error
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := s.Step(ctx); err != nil {
			runErr = err
			break
		}
		if untilIdle && s.Quiescent() {
			break
		}
		if s.tickDelay > 0 && i < ticks-1 {
			timer := time.NewTimer(s.tickDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				runErr = ctx.Err()
			case <-timer.C:
			}
			if runErr != nil {
				break
			}
		}
	}

	report := s.Report()
	report.Duration = time.Since(start)
	if s.bus != nil {
		s.bus.Publish(ctx, EventComplete, report)
	}

	ev := s.logger.Info()
	if runErr != nil {
		ev = s.logger.Error().Err(runErr)
	}
	ev.Int("ticks", report.Ticks).Int("stored", report.Stored).Msg("Simulation finished")
	return report, runErr
}
