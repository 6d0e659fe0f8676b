// Copyright 2025 Cavework Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package job

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cavework/cavework/pkg/ident"
)

var (
	// ErrDuplicateCategory indicates a name or kind was registered twice.
	ErrDuplicateCategory = errors.New("duplicate job category")

	// ErrUnregisteredKind indicates a job kind has no category.
	ErrUnregisteredKind = errors.New("job kind was not registered")

	// ErrInvalidCategory indicates a malformed registration request.
	ErrInvalidCategory = errors.New("invalid job category")

	// ErrUnknownCategory indicates a name that no category was registered under.
	ErrUnknownCategory = errors.New("unknown job category")
)

// Category classifies job instances into a board queue. Categories are
// created once by a Registry and compared by pointer.
type Category struct {
	name ident.Identifier
	kind Kind
}

// Name returns the registered identifier.
func (c *Category) Name() ident.Identifier { return c.name }

// Kind returns the job kind this category classifies.
func (c *Category) Kind() Kind { return c.kind }

func (c *Category) String() string { return c.name.String() }

// Registry maps job kinds to categories. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byKind map[Kind]*Category
	byName map[ident.Identifier]*Category
	order  []*Category
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKind: make(map[Kind]*Category),
		byName: make(map[ident.Identifier]*Category),
	}
}

// Register creates the category for kind under name.
func (r *Registry) Register(name ident.Identifier, kind Kind) (*Category, error) {
	if name.IsZero() || kind == "" {
		return nil, fmt.Errorf("%w: name and kind are required", ErrInvalidCategory)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return nil, fmt.Errorf("%w: name %s", ErrDuplicateCategory, name)
	}
	if existing, exists := r.byKind[kind]; exists {
		return nil, fmt.Errorf("%w: kind %q already classified by %s", ErrDuplicateCategory, kind, existing.name)
	}

	c := &Category{name: name, kind: kind}
	r.byKind[kind] = c
	r.byName[name] = c
	r.order = append(r.order, c)
	return c, nil
}

// MustRegister is Register for startup wiring; it panics on error.
func (r *Registry) MustRegister(name ident.Identifier, kind Kind) *Category {
	c, err := r.Register(name, kind)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the category for kind.
func (r *Registry) Lookup(kind Kind) (*Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byKind[kind]
	return c, ok
}

// ByName returns the category registered under name.
func (r *Registry) ByName(name ident.Identifier) (*Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// Resolve turns configured category names into categories, keeping their
// order. Bare names are read in the default namespace.
func (r *Registry) Resolve(names []string) ([]*Category, error) {
	out := make([]*Category, 0, len(names))
	for _, name := range names {
		id, err := ident.ParseDefault(name)
		if err != nil {
			return nil, err
		}
		c, ok := r.ByName(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, id)
		}
		out = append(out, c)
	}
	return out, nil
}

// Categories returns every category in registration order.
func (r *Registry) Categories() []*Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Category(nil), r.order...)
}

// Contains reports whether c was created by this registry.
func (r *Registry) Contains(c *Category) bool {
	if c == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byKind[c.kind] == c
}

// CategoryOf resolves the category for j. An unregistered kind is a wiring
// defect, so it panics rather than returning an error.
func (r *Registry) CategoryOf(j Job) *Category {
	c, ok := r.Lookup(j.Kind())
	if !ok {
		panic(fmt.Errorf("%w: %q (%T)", ErrUnregisteredKind, j.Kind(), j))
	}
	return c
}
