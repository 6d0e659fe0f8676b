// Package jobs holds the concrete job kinds of the cave: digging out walls
// and hauling loose resources to a store room.
package jobs

import (
	"context"
	"fmt"

	"github.com/cavework/cavework/pkg/ident"
	"github.com/cavework/cavework/pkg/job"
	"github.com/cavework/cavework/pkg/level"
)

const (
	KindMining  job.Kind = "mining"
	KindHauling job.Kind = "hauling"
)

var (
	NameMining  = ident.MustNew(ident.DefaultNamespace, "mining")
	NameHauling = ident.MustNew(ident.DefaultNamespace, "hauling")
)

// Worker is what the cave jobs need from an actor beyond job.Actor. Actors
// that don't implement it are never offered these jobs.
type Worker interface {
	job.Actor

	// Context is the context of the tick currently being run.
	Context() context.Context
	Level() *level.Level
	Position() level.TilePos

	Navigating() bool
	Navigate(goal level.TilePos) bool
	NavigateToSide(goal level.TilePos) bool

	Holding() *level.Resource
	Pickup(r *level.Resource) bool
}

// RegisterDefaults registers the hauling and mining categories.
func RegisterDefaults(reg *job.Registry) error {
	if _, err := reg.Register(NameHauling, KindHauling); err != nil {
		return err
	}
	if _, err := reg.Register(NameMining, KindMining); err != nil {
		return err
	}
	return nil
}

// DefaultPriorities returns the stock order: hauling before mining, so loose
// resources are cleared before new ones are dug out.
func DefaultPriorities(reg *job.Registry) ([]*job.Category, error) {
	out := make([]*job.Category, 0, 2)
	for _, kind := range []job.Kind{KindHauling, KindMining} {
		c, ok := reg.Lookup(kind)
		if !ok {
			return nil, fmt.Errorf("%w: %q", job.ErrUnregisteredKind, kind)
		}
		out = append(out, c)
	}
	return out, nil
}

func asWorker(a job.Actor) (Worker, bool) {
	w, ok := a.(Worker)
	return w, ok
}
