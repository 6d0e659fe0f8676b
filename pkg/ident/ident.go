// Copyright 2025 Cavework Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package ident provides namespaced identifiers of the form "namespace:path".
package ident

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultNamespace is the namespace of everything cavework registers itself.
const DefaultNamespace = "cavework"

var (
	namespacePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	pathPattern      = regexp.MustCompile(`^[a-z][a-z0-9_/\\.]*$`)

	// ErrInvalidIdentifier indicates a namespace or path failed validation.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// Identifier is an immutable namespace/path pair.
type Identifier struct {
	Namespace string
	Path      string
}

// New validates both halves and builds an Identifier.
func New(namespace, path string) (Identifier, error) {
	if err := ValidateNamespace(namespace); err != nil {
		return Identifier{}, err
	}
	if err := ValidatePath(path); err != nil {
		return Identifier{}, err
	}
	return Identifier{Namespace: namespace, Path: path}, nil
}

// MustNew is New for package-level declarations. It panics on invalid input.
func MustNew(namespace, path string) Identifier {
	id, err := New(namespace, path)
	if err != nil {
		panic(err)
	}
	return id
}

// Parse reads an identifier in "namespace:path" form.
func Parse(s string) (Identifier, error) {
	namespace, path, ok := strings.Cut(s, ":")
	if !ok {
		return Identifier{}, fmt.Errorf("%w: %q is missing a namespace separator", ErrInvalidIdentifier, s)
	}
	return New(namespace, path)
}

// ParseDefault is Parse, but a bare path gets DefaultNamespace.
func ParseDefault(s string) (Identifier, error) {
	if !strings.Contains(s, ":") {
		return New(DefaultNamespace, s)
	}
	return Parse(s)
}

// String renders the identifier as "namespace:path".
func (id Identifier) String() string {
	return id.Namespace + ":" + id.Path
}

// IsZero reports whether the identifier was never set.
func (id Identifier) IsZero() bool {
	return id.Namespace == "" && id.Path == ""
}

// PrefixPath returns a copy with prefix and a slash prepended to the path.
func (id Identifier) PrefixPath(prefix string) (Identifier, error) {
	if err := ValidatePath(prefix); err != nil {
		return Identifier{}, err
	}
	return Identifier{Namespace: id.Namespace, Path: prefix + "/" + id.Path}, nil
}

// Append returns a copy with suffix appended to the path.
func (id Identifier) Append(suffix string) (Identifier, error) {
	if err := ValidatePath(suffix); err != nil {
		return Identifier{}, err
	}
	return Identifier{Namespace: id.Namespace, Path: id.Path + suffix}, nil
}

// ValidateNamespace checks a namespace against ^[a-z][a-z0-9_]*$.
func ValidateNamespace(namespace string) error {
	if !namespacePattern.MatchString(namespace) {
		return fmt.Errorf("%w: namespace %q is illegal", ErrInvalidIdentifier, namespace)
	}
	return nil
}

// ValidatePath checks a path against ^[a-z][a-z0-9_/\.]*$.
func ValidatePath(path string) error {
	if !pathPattern.MatchString(path) {
		return fmt.Errorf("%w: path %q is illegal", ErrInvalidIdentifier, path)
	}
	return nil
}
