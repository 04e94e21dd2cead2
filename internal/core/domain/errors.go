package domain

import "go.trai.ch/zerr"

var (
	// ErrTargetAlreadyExists is returned when registering a target under a name that is already taken.
	ErrTargetAlreadyExists = zerr.New("target already exists")

	// ErrTargetNotFound is returned when resolving a name that was never registered.
	ErrTargetNotFound = zerr.New("no such target")

	// ErrCycleDetected is returned when a target is requested while it is still resolving.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrEmptyCommand is returned when a process is requested without any arguments.
	ErrEmptyCommand = zerr.New("empty command")

	// ErrInvalidConfig is returned when a forge.yaml file is malformed.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrContextExpired is returned when a target context is used after its body returned.
	ErrContextExpired = zerr.New("target context used after its body returned")

	// ErrNotConfigured is returned when a capability was requested that the builder was created without.
	ErrNotConfigured = zerr.New("capability not configured")

	// ErrInputNotFound is returned when a declared input path does not exist.
	ErrInputNotFound = zerr.New("input not found")

	// ErrInvalidLogFormat is returned for a log format other than pretty or json.
	ErrInvalidLogFormat = zerr.New("unknown log format")

	// ErrNoTargetsSpecified is returned when a run is requested without target names.
	ErrNoTargetsSpecified = zerr.New("no targets specified")
)
