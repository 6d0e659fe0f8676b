package jobs

import (
	"context"
	"fmt"

	"github.com/cavework/cavework/pkg/job"
	"github.com/cavework/cavework/pkg/level"
)

// HaulJob carries a loose resource into the nearest store room.
type HaulJob struct {
	job.Base
	Resource *level.Resource
}

// NewHaulJob creates a job for r.
func NewHaulJob(r *level.Resource) *HaulJob {
	return &HaulJob{Resource: r}
}

func (j *HaulJob) Kind() job.Kind { return KindHauling }

// EstimateCost is the cost of walking to the resource. Actors with full hands,
// resources that are no longer on the floor and resources with no store room
// reachable from where they lie are not eligible.
func (j *HaulJob) EstimateCost(_ context.Context, a job.Actor) (job.Cost, bool, error) {
	w, ok := asWorker(a)
	if !ok || w.Holding() != nil || !j.Resource.Available() {
		return 0, false, nil
	}
	pos := j.Resource.Pos()
	path, ok := w.Level().Pathfinder().FindPath(w.Position(), pos)
	if !ok || !StoreReachable(w.Level(), pos) {
		return 0, false, nil
	}
	return job.Cost(path.Cost), true, nil
}

func (j *HaulJob) Start(a job.Actor) {
	w, ok := asWorker(a)
	if !ok {
		a.Release(j, false)
		return
	}
	w.Navigate(j.Resource.Pos())
}

func (j *HaulJob) Tick(a job.Actor) {
	w, ok := asWorker(a)
	if !ok {
		a.Release(j, false)
		return
	}
	res := j.Resource
	lvl := w.Level()

	if w.Holding() == res {
		if store, ok := adjacentStore(lvl, w.Position()); ok {
			if err := lvl.Store(w.Context(), res, store); err != nil {
				a.Release(j, true)
				return
			}
			a.Release(j, false)
			return
		}
		if !w.Navigating() && !navigateToStore(w) {
			a.Release(j, true)
		}
		return
	}

	if !res.Available() {
		a.Release(j, true)
		return
	}
	if w.Position() == res.Pos() {
		if !w.Pickup(res) {
			a.Release(j, true)
			return
		}
		navigateToStore(w)
		return
	}
	if !w.Navigating() && !w.Navigate(res.Pos()) {
		a.Release(j, true)
	}
}

func (j *HaulJob) String() string {
	return fmt.Sprintf("haul %s from %s", j.Resource.ID(), j.Resource.Pos())
}

func isStore(t level.Tile) bool { return t == level.TileStoreRoom }

// adjacentStore finds a store room under or next to pos.
func adjacentStore(lvl *level.Level, pos level.TilePos) (level.TilePos, bool) {
	if isStore(lvl.Tile(pos)) {
		return pos, true
	}
	for _, n := range pos.Neighbors() {
		if isStore(lvl.Tile(n)) {
			return n, true
		}
	}
	return level.TilePos{}, false
}

func navigateToStore(w Worker) bool {
	store, ok := nearestStore(w.Level(), w.Position())
	if !ok {
		return false
	}
	return w.NavigateToSide(store)
}

// nearestStore returns the store room with the cheapest path from pos.
func nearestStore(lvl *level.Level, pos level.TilePos) (level.TilePos, bool) {
	var (
		best     level.TilePos
		bestCost uint64
		found    bool
	)
	pf := lvl.Pathfinder()
	for _, store := range lvl.Find(level.TileStoreRoom) {
		path, ok := pf.FindPath(pos, store)
		if ok && (!found || path.Cost < bestCost) {
			best, bestCost, found = store, path.Cost, true
		}
	}
	return best, found
}

// StoreReachable reports whether something lying at pos could be carried
// into a store room.
func StoreReachable(lvl *level.Level, pos level.TilePos) bool {
	_, ok := nearestStore(lvl, pos)
	return ok
}
