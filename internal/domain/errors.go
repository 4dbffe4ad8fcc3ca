package domain

import "errors"

// Sentinel errors shared across services and repositories.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrCapacityExceeded   = errors.New("event is full")
	ErrCapacityConflict   = errors.New("capacity is below current attendance")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ErrAlreadyJoined is returned by storage when the (user, event) attendance already exists.
// Services turn it into the already_joined status.
var ErrAlreadyJoined = errors.New("already joined")
