// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrChallengeFrozen indicates an attempt to mutate a challenge that has
	// already received submissions.
	ErrChallengeFrozen = errors.New("challenge frozen")

	// ErrInvalidInput indicates the request was rejected before any store access.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates a temporary lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")
)
