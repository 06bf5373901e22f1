package resource

import "errors"

// Package-level errors.
var (
	// ErrAlreadyInstalled is returned by Install after a successful install.
	ErrAlreadyInstalled = errors.New("resource: already installed")

	// ErrServerRequired is returned when Config.Server is nil.
	ErrServerRequired = errors.New("resource: coap server is required")
)
