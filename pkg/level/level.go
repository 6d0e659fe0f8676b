// Copyright 2025 Cavework Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package level models the cave: a tile grid, the loose resources on it and a
// cached pathfinder that job cost estimates are computed with.
//
// A Level is safe for concurrent use. Events are published after the level
// lock is released, so handlers may query the level freely.
package level

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cavework/cavework/pkg/event"
)

// Level is a fixed-size tile grid. Coordinates outside the grid read as bedrock.
type Level struct {
	mu        sync.RWMutex
	width     int
	height    int
	tiles     []Tile
	progress  map[TilePos]int
	resources map[*Resource]struct{}
	stock     map[TilePos]int

	bus        event.EventBus
	logger     zerolog.Logger
	pathfinder *Pathfinder
}

// Option configures a Level.
type Option func(*Level)

// WithEventBus publishes level events on bus.
func WithEventBus(bus event.EventBus) Option {
	return func(l *Level) { l.bus = bus }
}

// WithLogger sets the level logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Level) { l.logger = logger.With().Str("component", "level").Logger() }
}

// New creates a width x height level filled with bedrock.
func New(width, height int, opts ...Option) (*Level, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid level size %dx%d", width, height)
	}
	l := &Level{
		width:     width,
		height:    height,
		tiles:     make([]Tile, width*height),
		progress:  make(map[TilePos]int),
		resources: make(map[*Resource]struct{}),
		stock:     make(map[TilePos]int),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.pathfinder = newPathfinder(l)
	return l, nil
}

// Width returns the level width in tiles.
func (l *Level) Width() int { return l.width }

// Height returns the level height in tiles.
func (l *Level) Height() int { return l.height }

// Pathfinder returns the level's shared pathfinder.
func (l *Level) Pathfinder() *Pathfinder { return l.pathfinder }

// InBounds reports whether pos lies on the grid.
func (l *Level) InBounds(pos TilePos) bool {
	return pos.X >= 0 && pos.Y >= 0 && pos.X < l.width && pos.Y < l.height
}

// Tile returns the tile at pos, bedrock when out of bounds.
func (l *Level) Tile(pos TilePos) Tile {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tileLocked(pos)
}

func (l *Level) tileLocked(pos TilePos) Tile {
	if !l.InBounds(pos) {
		return TileBedrock
	}
	return l.tiles[pos.X+pos.Y*l.width]
}

// SetTile replaces the tile at pos and resets its dig progress. Out of bounds
// writes are ignored.
func (l *Level) SetTile(ctx context.Context, pos TilePos, tile Tile) {
	l.mu.Lock()
	pending := l.setTileLocked(pos, tile)
	l.mu.Unlock()

	l.publish(ctx, pending)
}

type pendingEvent struct {
	name string
	data any
}

func (l *Level) setTileLocked(pos TilePos, tile Tile) []pendingEvent {
	if !l.InBounds(pos) {
		return nil
	}
	delete(l.progress, pos)

	idx := pos.X + pos.Y*l.width
	existing := l.tiles[idx]
	if existing == tile {
		return nil
	}
	l.tiles[idx] = tile
	if existing == TileStoreRoom {
		delete(l.stock, pos)
	}
	l.pathfinder.tileModified(pos, existing, tile)

	events := []pendingEvent{{EventTileChanged, TileChanged{Pos: pos, From: existing, To: tile}}}
	if !existing.Passable() && tile.Passable() {
		for _, n := range pos.Neighbors() {
			if t := l.tileLocked(n); t.Mineable() {
				events = append(events, pendingEvent{EventWallExposed, WallExposed{Pos: n, Tile: t}})
			}
		}
	}
	return events
}

// Dig adds amount to the dig progress of a mineable tile. When progress
// reaches the tile's durability the tile turns into rubble, its resources are
// dropped in place and Dig returns true. Non-mineable tiles are left alone.
func (l *Level) Dig(ctx context.Context, pos TilePos, amount int) bool {
	l.mu.Lock()
	tile := l.tileLocked(pos)
	if !tile.Mineable() || amount <= 0 {
		l.mu.Unlock()
		return false
	}
	l.progress[pos] += amount
	if l.progress[pos] < tile.Durability() {
		l.mu.Unlock()
		return false
	}

	pending := l.setTileLocked(pos, TileRubble)
	for i := 0; i < tile.Drops(); i++ {
		r := newResource(pos)
		l.resources[r] = struct{}{}
		pending = append(pending, pendingEvent{EventResourceSpawned, ResourceSpawned{Resource: r}})
	}
	l.mu.Unlock()

	l.logger.Debug().Stringer("pos", pos).Stringer("tile", tile).Msg("Tile broken")
	l.publish(ctx, pending)
	return true
}

// Progress returns the current dig progress at pos.
func (l *Level) Progress(pos TilePos) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.progress[pos]
}

// Resources returns every resource that is not stored yet.
func (l *Level) Resources() []*Resource {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Resource, 0, len(l.resources))
	for r := range l.resources {
		out = append(out, r)
	}
	return out
}

// Drop puts a held resource back on the floor at pos and announces it again.
func (l *Level) Drop(ctx context.Context, r *Resource, pos TilePos) bool {
	if !r.putDown(pos) {
		return false
	}
	l.publish(ctx, []pendingEvent{{EventResourceSpawned, ResourceSpawned{Resource: r, Dropped: true}}})
	return true
}

// Store moves r into the store room at pos.
func (l *Level) Store(ctx context.Context, r *Resource, pos TilePos) error {
	l.mu.Lock()
	if l.tileLocked(pos) != TileStoreRoom {
		l.mu.Unlock()
		return fmt.Errorf("no store room at %s", pos)
	}
	if _, ok := l.resources[r]; !ok || !r.store(pos) {
		l.mu.Unlock()
		return fmt.Errorf("resource %s is not on this level", r.ID())
	}
	delete(l.resources, r)
	l.stock[pos]++
	l.mu.Unlock()

	l.publish(ctx, []pendingEvent{{EventResourceStored, ResourceStored{Resource: r, Store: pos}}})
	return nil
}

// Stored returns the number of resources kept across all store rooms.
func (l *Level) Stored() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, c := range l.stock {
		n += c
	}
	return n
}

// Find returns every position holding one of the given tiles, row by row.
func (l *Level) Find(kinds ...Tile) []TilePos {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []TilePos
	for i, t := range l.tiles {
		for _, k := range kinds {
			if t == k {
				out = append(out, TilePos{X: i % l.width, Y: i / l.width})
				break
			}
		}
	}
	return out
}

// FindNearestTile runs a breadth-first search from pos, not counting pos
// itself, for the closest tile accepted by match.
func (l *Level) FindNearestTile(pos TilePos, match func(Tile) bool) (TilePos, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	visited := map[TilePos]bool{pos: true}
	queue := make([]TilePos, 0, 16)
	for _, n := range pos.Neighbors() {
		if l.InBounds(n) {
			visited[n] = true
			queue = append(queue, n)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if match(l.tileLocked(cur)) {
			return cur, true
		}
		for _, n := range cur.Neighbors() {
			if l.InBounds(n) && !visited[n] {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}
	return TilePos{}, false
}

// ExposedMineable lists mineable tiles that have at least one passable
// neighbour, row by row.
func (l *Level) ExposedMineable() []TilePos {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []TilePos
	for i, t := range l.tiles {
		if !t.Mineable() {
			continue
		}
		pos := TilePos{X: i % l.width, Y: i / l.width}
		for _, n := range pos.Neighbors() {
			if l.tileLocked(n).Passable() {
				out = append(out, pos)
				break
			}
		}
	}
	return out
}

func (l *Level) publish(ctx context.Context, events []pendingEvent) {
	if l.bus == nil {
		return
	}
	for _, e := range events {
		l.bus.Publish(ctx, e.name, e.data)
	}
}
