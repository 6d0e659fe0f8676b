// Copyright 2025 Cavework Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package job defines the contract shared by every schedulable task kind, the
// per-instance lifecycle state machine and the category registry that
// classifies job instances into board queues.
package job

import "context"

// Kind is the explicit discriminant a job implementation declares for itself.
// Each Kind maps to exactly one Category in a Registry.
type Kind string

// Cost is a non-negative traversal/work cost. Lower is better.
type Cost uint64

// Actor is the worker that claims, starts and ticks a job.
//
// The board only needs an identity for logging; concrete job kinds ask for
// richer capabilities (position, navigation) through their own interfaces.
type Actor interface {
	// ID returns a stable identifier for the actor.
	ID() string

	// Release ends the job's active state. retry signals that the job failed
	// and the actor should look for a replacement straight away.
	Release(j Job, retry bool)
}

// Job is a schedulable unit of simulated work.
//
// Implementations must be pointer types: the board tracks jobs by instance
// identity, so two structurally equal jobs are distinct units of work.
type Job interface {
	// Kind declares which category this job is queued under.
	Kind() Kind

	// EstimateCost reports the cost of performing the job from the actor's
	// current position. ok is false when the job is unreachable or the actor
	// is ineligible. A non-nil error means the cost collaborator itself broke.
	// Must be safe for concurrent use with different actors.
	EstimateCost(ctx context.Context, actor Actor) (cost Cost, ok bool, err error)

	// Start is called once, right after the actor claimed the job.
	Start(actor Actor)

	// Tick performs one unit of work for the owning actor.
	Tick(actor Actor)

	// Lifecycle exposes the instance state machine. Embed Base to provide it.
	Lifecycle() *Lifecycle
}

// Base supplies the Lifecycle for a concrete job kind. Embed it by value.
type Base struct {
	lifecycle Lifecycle
}

// Lifecycle returns the job's state machine.
func (b *Base) Lifecycle() *Lifecycle {
	return &b.lifecycle
}
