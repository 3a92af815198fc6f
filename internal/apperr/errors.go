// Package apperr defines the error kinds shared across millwork packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrPathNotFound means a dot-notation path failed to resolve at some step.
	ErrPathNotFound = errors.New("path not found")
	// ErrInvalidChild means a node kind may not be placed under the given parent.
	ErrInvalidChild = errors.New("invalid child kind")
	// ErrDuplicateID means a node id is already present in the tree.
	ErrDuplicateID = errors.New("duplicate node id")
	// ErrUnknownPricingTriple means no unit price exists for a level/material/finish combination.
	ErrUnknownPricingTriple = errors.New("unknown pricing triple")
)
