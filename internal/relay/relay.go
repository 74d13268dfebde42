package relay

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/Aryan9626/chess-app/internal/model"
	"github.com/Aryan9626/chess-app/internal/protocol"
	"github.com/Aryan9626/chess-app/internal/registry"
)

// Sender delivers an envelope to one connection. The gateway implements this
// over its live connection set; delivery is at-most-once.
type Sender interface {
	Send(target model.ConnectionID, env protocol.Envelope) error
}

// MoveRelay forwards turn payloads between the members of a session. It does
// no legality checking; both clients re-validate moves against their own
// rules engine, so the relay is transport only.
type MoveRelay struct {
	registry *registry.Registry
	sender   Sender
	logger   *slog.Logger
}

// NewMoveRelay creates a MoveRelay
func NewMoveRelay(reg *registry.Registry, sender Sender, logger *slog.Logger) *MoveRelay {
	return &MoveRelay{
		registry: reg,
		sender:   sender,
		logger:   logger.With(slog.String("component", "move-relay")),
	}
}

// RelayMove forwards the payload unchanged to every member of the session
// other than the sender. A dead target drops the message silently; no retry
// and no error back to the sender.
func (r *MoveRelay) RelayMove(sessionID model.SessionID, sender model.ConnectionID, payload json.RawMessage) error {
	session, err := r.registry.GetSession(sessionID)
	if err != nil {
		return err
	}

	env := protocol.Envelope{Action: protocol.ActionMove, Payload: payload}
	for _, target := range session.Opponents(sender) {
		if err := r.sender.Send(target.ConnectionID, env); err != nil {
			r.logger.Debug("move dropped",
				slog.String("session_id", string(sessionID)),
				slog.String("target", string(target.ConnectionID)))
		}
	}
	return nil
}

// SignalRelay forwards opaque peer-negotiation payloads to one named
// connection, so the two participants can bootstrap a direct side-channel.
// Payloads are never interpreted and no state is retained.
type SignalRelay struct {
	registry *registry.Registry
	sender   Sender
	logger   *slog.Logger
}

// NewSignalRelay creates a SignalRelay
func NewSignalRelay(reg *registry.Registry, sender Sender, logger *slog.Logger) *SignalRelay {
	return &SignalRelay{
		registry: reg,
		sender:   sender,
		logger:   logger.With(slog.String("component", "signal-relay")),
	}
}

// RelaySignal forwards the payload to the named target connection. The
// session must be active and the target must be one of its members; anything
// else is a structured error back to the caller. Delivery itself stays
// fire-and-forget.
func (r *SignalRelay) RelaySignal(sessionID model.SessionID, target model.ConnectionID, payload json.RawMessage) error {
	session, err := r.registry.GetSession(sessionID)
	if err != nil {
		return err
	}
	if session.State != model.SessionStateActive {
		return model.ErrSessionNotActive
	}
	if !session.HasPlayer(target) {
		return model.ErrNotInSession
	}

	env := protocol.Envelope{Action: protocol.ActionSignal, Payload: payload}
	if err := r.sender.Send(target, env); err != nil {
		if errors.Is(err, model.ErrTargetUnreachable) {
			r.logger.Debug("signal dropped",
				slog.String("session_id", string(sessionID)),
				slog.String("target", string(target)))
			return nil
		}
		return err
	}
	return nil
}
