package services

import "errors"

var (
	// ErrNotFound is returned when an entity does not exist in the
	// caller's tenant. Cross-tenant lookups also surface as not found.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller is authenticated but not
	// allowed to touch the entity.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a conversation already has a turn in
	// flight.
	ErrConflict = errors.New("conflict")

	// ErrNoActivePersonalities is returned when a tenant has no enabled
	// personality left to serve a request.
	ErrNoActivePersonalities = errors.New("no active personalities configured")
)
