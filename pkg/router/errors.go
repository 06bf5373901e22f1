package router

import "errors"

// Router errors
var (
	// ErrStackRequired indicates Config.Stack was not set.
	ErrStackRequired = errors.New("router: stack is required")
)
