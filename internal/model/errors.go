package model

import "errors"

// Common errors used across the application
var (
	// Session errors. The message strings are surfaced verbatim in join
	// acknowledgements, so they match what clients display.
	ErrSessionNotFound = errors.New("room does not exist")
	ErrSessionEmpty    = errors.New("room is empty")
	ErrSessionFull     = errors.New("room is full")

	// Relay errors
	ErrSessionNotActive  = errors.New("session is not active")
	ErrNotInSession      = errors.New("connection is not in this session")
	ErrTargetUnreachable = errors.New("target connection is not reachable")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
)
