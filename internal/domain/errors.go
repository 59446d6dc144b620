package domain

import "errors"

// ErrNoPath is returned when the goal cannot be reached, including when the
// start or goal itself is excluded.
var ErrNoPath = errors.New("no path found")

// ErrInvalidInput marks caller errors that are rejected before any search runs.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrMissingEndpoint       = wrapInvalid("missing endpoint")
	ErrInvalidK              = wrapInvalid("k must be positive")
	ErrInvalidPassengers     = wrapInvalid("passengers must be positive")
	ErrSameOriginDestination = wrapInvalid("origin and destination must differ")
	ErrInvalidSegment        = wrapInvalid("invalid train segment")
	ErrUnknownAlgorithm      = wrapInvalid("unknown route algorithm")
)

type invalidInputError struct {
	msg string
}

func wrapInvalid(msg string) error {
	return &invalidInputError{msg: msg}
}

func (e *invalidInputError) Error() string { return e.msg }

func (e *invalidInputError) Unwrap() error { return ErrInvalidInput }
