package jobs

import (
	"context"
	"fmt"

	"github.com/cavework/cavework/pkg/job"
	"github.com/cavework/cavework/pkg/level"
)

// DigStrength is the dig progress one tick of mining adds.
const DigStrength = 1

// MiningJob digs out the wall at Pos. It completes once the tile is no
// longer the one the job was created for.
type MiningJob struct {
	job.Base
	Tile level.Tile
	Pos  level.TilePos
}

// NewMiningJob creates a job for the wall tile at pos.
func NewMiningJob(tile level.Tile, pos level.TilePos) *MiningJob {
	return &MiningJob{Tile: tile, Pos: pos}
}

func (j *MiningJob) Kind() job.Kind { return KindMining }

// EstimateCost is the cost of the cheapest path to a passable side of the wall.
func (j *MiningJob) EstimateCost(_ context.Context, a job.Actor) (job.Cost, bool, error) {
	w, ok := asWorker(a)
	if !ok {
		return 0, false, nil
	}
	lvl := w.Level()
	if lvl.Tile(j.Pos) != j.Tile {
		return 0, false, nil
	}
	path, ok := lvl.Pathfinder().FindCheapestPathToSide(w.Position(), j.Pos)
	if !ok {
		return 0, false, nil
	}
	return job.Cost(path.Cost), true, nil
}

func (j *MiningJob) Start(a job.Actor) {
	w, ok := asWorker(a)
	if !ok {
		a.Release(j, false)
		return
	}
	w.NavigateToSide(j.Pos)
}

func (j *MiningJob) Tick(a job.Actor) {
	w, ok := asWorker(a)
	if !ok {
		a.Release(j, false)
		return
	}
	lvl := w.Level()
	if lvl.Tile(j.Pos) != j.Tile {
		a.Release(j, false)
		return
	}

	if w.Position().IsAdjacentTo(j.Pos) {
		lvl.Dig(w.Context(), j.Pos, DigStrength)
		if lvl.Tile(j.Pos) != j.Tile {
			a.Release(j, false)
		}
		return
	}
	if !w.Navigating() && !w.NavigateToSide(j.Pos) {
		a.Release(j, true)
	}
}

func (j *MiningJob) String() string {
	return fmt.Sprintf("mine %s at %s", j.Tile, j.Pos)
}
