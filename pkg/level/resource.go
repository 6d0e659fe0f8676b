package level

import (
	"sync"

	"github.com/google/uuid"
)

// Resource is a loose item lying on the floor, carried by an actor or stored.
type Resource struct {
	id string

	mu     sync.RWMutex
	pos    TilePos
	held   bool
	stored bool
}

func newResource(pos TilePos) *Resource {
	return &Resource{id: uuid.NewString(), pos: pos}
}

// ID returns the resource's unique id.
func (r *Resource) ID() string { return r.id }

// Pos returns where the resource was last put down.
func (r *Resource) Pos() TilePos {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pos
}

// Held reports whether an actor is carrying the resource.
func (r *Resource) Held() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.held
}

// Stored reports whether the resource reached a store room. Stored resources
// are gone from the level for good.
func (r *Resource) Stored() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stored
}

// Available reports whether the resource is on the floor and can be picked up.
func (r *Resource) Available() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.held && !r.stored
}

// TryHold marks the resource as carried. It fails when someone else holds it
// or it has been stored.
func (r *Resource) TryHold() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.held || r.stored {
		return false
	}
	r.held = true
	return true
}

func (r *Resource) putDown(pos TilePos) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.held {
		return false
	}
	r.held = false
	r.pos = pos
	return true
}

func (r *Resource) store(pos TilePos) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stored {
		return false
	}
	r.held = false
	r.stored = true
	r.pos = pos
	return true
}
