package commissioner

import "errors"

// Coordinator errors
var (
	// ErrStackRequired indicates Config.Stack was not set.
	ErrStackRequired = errors.New("commissioner: stack is required")

	// ErrInvalidPSKd indicates the configured joiner credential is malformed.
	ErrInvalidPSKd = errors.New("commissioner: invalid joiner PSKd")

	// ErrInvalidTimeout indicates a non-positive joiner timeout.
	ErrInvalidTimeout = errors.New("commissioner: joiner timeout must be positive")
)
