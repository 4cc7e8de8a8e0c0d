package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict, such as a duplicate
	// sibling slug or site key.
	ErrAlreadyExists = errors.New("already exists")
)
