package basestation

import "errors"

// Package-level errors.
var (
	// ErrAlreadyStarted is returned when Start() is called on a running node.
	ErrAlreadyStarted = errors.New("basestation: node already started")

	// ErrNotStarted is returned when an operation requires a running node.
	ErrNotStarted = errors.New("basestation: node not started")

	// ErrAlreadyStopped is returned when Stop() is called on a stopped node.
	ErrAlreadyStopped = errors.New("basestation: node already stopped")

	// ErrInvalidConfig is returned when Config validation fails.
	ErrInvalidConfig = errors.New("basestation: invalid configuration")

	// ErrStackRequired is returned when NodeConfig.Stack is nil.
	ErrStackRequired = errors.New("basestation: stack is required")

	// ErrCoAPRequired is returned when NodeConfig.CoAP is nil.
	ErrCoAPRequired = errors.New("basestation: coap server is required")
)
