package level

import (
	"container/heap"
	"slices"
	"sync"
)

// Path is the result of a successful search. Steps excludes the start tile
// and ends at the goal; Cost is the sum of the pathing cost of every step.
type Path struct {
	Steps []TilePos
	Cost  uint64
}

type pathKey struct {
	start, goal TilePos
}

type cachedPath struct {
	path Path
	ok   bool
}

// Pathfinder runs A* searches over a Level and caches their outcome per
// (start, goal) pair. It is safe for concurrent use; many actors cost jobs
// through the same Pathfinder at once.
type Pathfinder struct {
	level *Level

	mu         sync.RWMutex
	cache      map[pathKey]cachedPath
	generation uint64
}

func newPathfinder(l *Level) *Pathfinder {
	return &Pathfinder{level: l, cache: make(map[pathKey]cachedPath)}
}

// tileModified drops cache entries that a change of pathing cost at pos makes
// stale. Called with the level write lock held.
func (p *Pathfinder) tileModified(pos TilePos, from, to Tile) {
	if from.PathingCost() == to.PathingCost() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++

	if to.Passable() && (!from.Passable() || to.PathingCost() < from.PathingCost()) {
		// New or cheaper ground can shorten any path and connect any failed search.
		clear(p.cache)
		return
	}
	for key, entry := range p.cache {
		if entry.ok && (key.goal == pos || slices.Contains(entry.path.Steps, pos)) {
			delete(p.cache, key)
		}
	}
}

// Purge empties the cache.
func (p *Pathfinder) Purge() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	clear(p.cache)
}

// CacheLen returns the number of cached searches.
func (p *Pathfinder) CacheLen() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.cache)
}

// FindPath returns the cheapest path from start to goal. ok is false when the
// goal is impassable or cannot be reached.
func (p *Pathfinder) FindPath(start, goal TilePos) (Path, bool) {
	key := pathKey{start: start, goal: goal}

	p.mu.RLock()
	entry, hit := p.cache[key]
	p.mu.RUnlock()
	if hit {
		return clonePath(entry.path), entry.ok
	}

	p.level.mu.RLock()
	p.mu.RLock()
	gen := p.generation
	p.mu.RUnlock()
	path, ok := p.search(start, goal)
	p.level.mu.RUnlock()

	p.mu.Lock()
	if p.generation == gen {
		p.cache[key] = cachedPath{path: path, ok: ok}
	}
	p.mu.Unlock()
	return clonePath(path), ok
}

// FindCheapestPath searches every goal and returns the cheapest success.
// Ties go to the earliest goal.
func (p *Pathfinder) FindCheapestPath(start TilePos, goals []TilePos) (Path, bool) {
	var (
		best  Path
		found bool
	)
	for _, goal := range goals {
		path, ok := p.FindPath(start, goal)
		if ok && (!found || path.Cost < best.Cost) {
			best, found = path, true
		}
	}
	return best, found
}

// FindCheapestPathToSide paths onto goal when it is passable, otherwise onto
// its cheapest passable neighbour. Used to approach walls.
func (p *Pathfinder) FindCheapestPathToSide(start, goal TilePos) (Path, bool) {
	if p.level.Tile(goal).Passable() {
		return p.FindPath(start, goal)
	}
	sides := make([]TilePos, 0, 4)
	for _, n := range goal.Neighbors() {
		if p.level.Tile(n).Passable() {
			sides = append(sides, n)
		}
	}
	return p.FindCheapestPath(start, sides)
}

// search is A* with the truncated euclidean distance as heuristic. The caller
// holds the level read lock.
func (p *Pathfinder) search(start, goal TilePos) (Path, bool) {
	if start == goal {
		return Path{}, true
	}
	if !p.level.tileLocked(goal).Passable() {
		return Path{}, false
	}

	cameFrom := make(map[TilePos]TilePos)
	gScore := map[TilePos]uint64{start: 0}
	open := &openSet{}
	heap.Push(open, &node{pos: start, f: start.DistanceTo(goal)})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if cur.pos == goal {
			return Path{Steps: reconstruct(cameFrom, start, goal), Cost: gScore[goal]}, true
		}
		if cur.g > gScore[cur.pos] {
			continue
		}
		for _, n := range cur.pos.Neighbors() {
			tile := p.level.tileLocked(n)
			if !tile.Passable() {
				continue
			}
			g := gScore[cur.pos] + tile.PathingCost()
			if old, seen := gScore[n]; seen && g >= old {
				continue
			}
			cameFrom[n] = cur.pos
			gScore[n] = g
			heap.Push(open, &node{pos: n, g: g, f: g + n.DistanceTo(goal), seq: open.seq})
			open.seq++
		}
	}
	return Path{}, false
}

func reconstruct(cameFrom map[TilePos]TilePos, start, goal TilePos) []TilePos {
	var steps []TilePos
	for cur := goal; cur != start; cur = cameFrom[cur] {
		steps = append(steps, cur)
	}
	slices.Reverse(steps)
	return steps
}

func clonePath(p Path) Path {
	return Path{Steps: slices.Clone(p.Steps), Cost: p.Cost}
}

type node struct {
	pos TilePos
	g   uint64
	f   uint64
	seq uint64
}

// openSet is a min-heap on f, then insertion order, so searches are deterministic.
type openSet struct {
	nodes []*node
	seq   uint64
}

func (s *openSet) Len() int { return len(s.nodes) }
func (s *openSet) Less(i, j int) bool {
	if s.nodes[i].f != s.nodes[j].f {
		return s.nodes[i].f < s.nodes[j].f
	}
	return s.nodes[i].seq < s.nodes[j].seq
}
func (s *openSet) Swap(i, j int) { s.nodes[i], s.nodes[j] = s.nodes[j], s.nodes[i] }
func (s *openSet) Push(x any)    { s.nodes = append(s.nodes, x.(*node)) }
func (s *openSet) Pop() any {
	old := s.nodes
	n := old[len(old)-1]
	old[len(old)-1] = nil
	s.nodes = old[:len(old)-1]
	return n
}
