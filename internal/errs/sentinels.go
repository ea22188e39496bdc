// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/client layers.
var (
	// ErrNotFound indicates the requested goal, backup goal or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated indicates there is no active user session or the credentials are bad.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrEmptyInput indicates a required text field was blank after trimming.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidArgument indicates malformed input such as a bad email or a missing id.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateGoal indicates a live goal with the same text (case-insensitive) already exists.
	ErrDuplicateGoal = errors.New("duplicate goal")

	// ErrRemoteUnavailable indicates the remote store could not be reached or failed.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrPermissionDenied indicates the record belongs to a different user.
	ErrPermissionDenied = errors.New("permission denied")
)
