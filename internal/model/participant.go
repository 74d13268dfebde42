package model

import "time"

// ConnectionID identifies a live transport connection. It is assigned by the
// gateway when the connection is established, never by the core.
type ConnectionID string

// Participant is one connected party in a session. It exists only as long as
// its owning connection is live.
type Participant struct {
	ConnectionID ConnectionID `json:"connectionId"`
	DisplayName  string       `json:"displayName,omitempty"`
}

// PlayerID uniquely identifies an account across the system
type PlayerID string

// Player represents an identity that can be attached to connections
type Player struct {
	ID          PlayerID
	DisplayName string
	IsGuest     bool // true for unregistered players
	CreatedAt   time.Time
}

// RegisteredPlayer extends Player with authentication data
// Stored separately so the hash never travels with the session
type RegisteredPlayer struct {
	PlayerID     PlayerID
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
