// Copyright 2025 Cavework Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package job

import "sync/atomic"

// State is a position in the job lifecycle.
type State int32

const (
	StateNew State = iota
	StatePending
	StateClaimed
	StateActive
	StateCompleted
	StateFailed
)

// String returns the string representation of the State value.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StatePending:
		return "pending"
	case StateClaimed:
		return "claimed"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Retired reports whether the state is terminal.
func (s State) Retired() bool {
	return s == StateCompleted || s == StateFailed
}

// Lifecycle tracks New -> Pending -> Claimed -> Active -> Completed|Failed.
//
// Every transition is a compare-and-swap, so concurrent callers agree on a
// single winner. Failed transitions return false; none of them panic.
type Lifecycle struct {
	state atomic.Int32
}

// State returns the current state.
func (l *Lifecycle) State() State {
	return State(l.state.Load())
}

func (l *Lifecycle) transition(from, to State) bool {
	return l.state.CompareAndSwap(int32(from), int32(to))
}

// MarkPending moves a fresh job onto a board.
func (l *Lifecycle) MarkPending() bool {
	return l.transition(StateNew, StatePending)
}

// MarkClaimed hands a pending job to a single actor.
func (l *Lifecycle) MarkClaimed() bool {
	return l.transition(StatePending, StateClaimed)
}

// MarkActive records that the owning actor started the job.
func (l *Lifecycle) MarkActive() bool {
	return l.transition(StateClaimed, StateActive)
}

// Retire ends the job. A job may be retired from Claimed (Start never ran)
// or Active. Retiring twice is a no-op that returns false.
func (l *Lifecycle) Retire(success bool) bool {
	to := StateFailed
	if success {
		to = StateCompleted
	}
	for {
		cur := l.State()
		if cur != StateClaimed && cur != StateActive {
			return false
		}
		if l.transition(cur, to) {
			return true
		}
	}
}
