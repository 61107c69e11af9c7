package usecase

import "errors"

// Usecase sentinels. Domain sentinels from internal/domain/game pass through
// unchanged so callers can tell a lifecycle violation from a bad request.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrConflict              = errors.New("conflict")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
