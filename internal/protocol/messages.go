package protocol

import (
	"encoding/json"

	"github.com/Aryan9626/chess-app/internal/model"
)

// Actions carried in envelopes. Requests are acknowledged with an envelope
// of the same action; the remaining actions are server pushes.
const (
	ActionSetName       = "setName"
	ActionCreateSession = "createSession"
	ActionJoinSession   = "joinSession"
	ActionMove          = "move"
	ActionSignal        = "signal"
	ActionCloseSession  = "closeSession"

	ActionOpponentJoined     = "opponentJoined"
	ActionPlayerDisconnected = "playerDisconnected"
)

// Envelope is the framing for every message on a gateway connection
type Envelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope builds an envelope with a marshalled payload
func NewEnvelope(action string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Action: action}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Action: action, Payload: data}, nil
}

// SetNameRequest sets the display name for an anonymous connection
type SetNameRequest struct {
	DisplayName string `json:"displayName"`
}

// CreateSessionResponse acknowledges session creation
type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// JoinSessionRequest asks to take the second seat in a session
type JoinSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// MoveRequest carries a turn payload to relay to the opponent
type MoveRequest struct {
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload"`
}

// SignalRequest carries an opaque negotiation payload for one named
// connection in the session
type SignalRequest struct {
	SessionID          string          `json:"sessionId"`
	TargetConnectionID string          `json:"targetConnectionId"`
	Payload            json.RawMessage `json:"payload"`
}

// CloseSessionRequest tears a session down. The same shape is pushed to the
// remaining members before they are evicted.
type CloseSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// ErrorResponse is the failure shape for acknowledgements
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// Participant mirrors model.Participant on the wire
type Participant struct {
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName,omitempty"`
}

// SessionSnapshot is the session view returned in join acks and pushed in
// opponentJoined notifications
type SessionSnapshot struct {
	ID      string        `json:"id"`
	Players []Participant `json:"players"`
}

// ParticipantFromModel converts a model.Participant
func ParticipantFromModel(p model.Participant) Participant {
	return Participant{
		ConnectionID: string(p.ConnectionID),
		DisplayName:  p.DisplayName,
	}
}

// SnapshotFromModel converts a model.Session
func SnapshotFromModel(s *model.Session) SessionSnapshot {
	players := make([]Participant, len(s.Players))
	for i, p := range s.Players {
		players[i] = ParticipantFromModel(p)
	}
	return SessionSnapshot{
		ID:      string(s.ID),
		Players: players,
	}
}
