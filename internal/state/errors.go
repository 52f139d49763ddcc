package state

import "errors"

var (
	// ErrNoBinding is returned when the working tree has no binding file.
	ErrNoBinding = errors.New("no branch binding found")

	// ErrBindingIncomplete is returned when the binding lacks a required key.
	ErrBindingIncomplete = errors.New("branch binding is incomplete")
)
