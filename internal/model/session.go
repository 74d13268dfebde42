package model

import "time"

// SessionID is an opaque token identifying a session
type SessionID string

// SessionState represents where a session is in its lifecycle
type SessionState string

const (
	// SessionStateCreated means one participant is waiting for an opponent.
	// No relay traffic flows in this state.
	SessionStateCreated SessionState = "created"
	// SessionStateActive means both seats are taken and relay traffic flows
	SessionStateActive SessionState = "active"
	// SessionStateClosed is terminal; the session is gone from the registry
	SessionStateClosed SessionState = "closed"
)

// MaxPlayers is the hard capacity of a session
const MaxPlayers = 2

// Session pairs at most two participants for one interactive run.
// The registry owns every Session exclusively; other components hold only ids.
type Session struct {
	ID        SessionID
	State     SessionState
	Players   []Participant
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetPlayer returns the participant with the given connection id, or nil
func (s *Session) GetPlayer(id ConnectionID) *Participant {
	for i := range s.Players {
		if s.Players[i].ConnectionID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// HasPlayer reports whether the connection is a member of the session
func (s *Session) HasPlayer(id ConnectionID) bool {
	return s.GetPlayer(id) != nil
}

// Opponents returns every participant other than the given connection
func (s *Session) Opponents(id ConnectionID) []Participant {
	var others []Participant
	for _, p := range s.Players {
		if p.ConnectionID != id {
			others = append(others, p)
		}
	}
	return others
}
