package store

import "errors"

var (
	// ErrNotFound is returned when a conversation does not exist in the
	// tenant's directory.
	ErrNotFound = errors.New("conversation not found")

	// ErrConflict is returned when a turn is started on a conversation
	// that is already processing one.
	ErrConflict = errors.New("conversation is already processing a turn")
)
