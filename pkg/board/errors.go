// Copyright 2025 Cavework Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package board

import "errors"

var (
	// ErrInvalidPriorities indicates the board was wired with a priority
	// sequence that does not cover the registry exactly once.
	ErrInvalidPriorities = errors.New("invalid category priorities")

	// ErrUnknownCategory indicates a job was enqueued under a category the
	// board was not constructed with.
	ErrUnknownCategory = errors.New("category is not on this board")

	// ErrCostEstimation wraps a failure of the cost collaborator. It is
	// distinct from an unreachable estimate, which is not an error.
	ErrCostEstimation = errors.New("cost estimation failed")
)
