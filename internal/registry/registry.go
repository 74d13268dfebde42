package registry

import (
	"log/slog"
	"sync"

	"github.com/Aryan9626/chess-app/internal/dependencies/clock"
	"github.com/Aryan9626/chess-app/internal/dependencies/random"
	"github.com/Aryan9626/chess-app/internal/model"
)

const (
	// SessionIDLength is the length of generated session ids
	SessionIDLength = 16
	// SessionIDAlphabet is the characters used in session ids (avoid confusing chars)
	SessionIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Registry owns the mapping from session id to session state. All sessions
// live in process memory only; every check-then-mutate operation runs under
// a single registry lock so two joins racing for the last seat resolve with
// exactly one winner.
type Registry struct {
	mu       sync.Mutex
	sessions map[model.SessionID]*model.Session

	clock  clock.Clock
	random random.Random
	logger *slog.Logger
}

// New creates a new session registry
func New(clock clock.Clock, random random.Random, logger *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[model.SessionID]*model.Session),
		clock:    clock,
		random:   random,
		logger:   logger.With(slog.String("component", "registry")),
	}
}

// RemovalOutcome describes what RemoveParticipant did, so the caller can
// notify whoever is left. The registry itself never talks to the transport.
type RemovalOutcome struct {
	// Found is false when no session contained the connection
	Found bool
	// Deleted is true when the departing participant was alone and the
	// session was removed outright
	Deleted bool
	// SessionID is the session the participant belonged to
	SessionID model.SessionID
	// Departed is the participant that left
	Departed model.Participant
	// Survivors are the members still recorded in the session
	Survivors []model.Participant
}

// CreateSession allocates a fresh id and stores a new session holding only
// the initiator. It always succeeds.
func (r *Registry) CreateSession(initiator model.Participant) *model.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Generate a collision-free id. Ids are crypto-random, so a fresh id
	// also never collides with one retired earlier.
	var id model.SessionID
	for {
		id = model.SessionID(r.random.String(SessionIDLength, SessionIDAlphabet))
		if _, exists := r.sessions[id]; !exists {
			break
		}
	}

	now := r.clock.Now()
	session := &model.Session{
		ID:        id,
		State:     model.SessionStateCreated,
		Players:   []model.Participant{initiator},
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.sessions[id] = session

	r.logger.Info("session created",
		slog.String("session_id", string(id)),
		slog.String("connection_id", string(initiator.ConnectionID)))

	return snapshot(session)
}

// JoinSession adds a participant to an existing session and activates it.
// The capacity check and the append happen under one lock acquisition, so
// no interleaving can admit a third participant.
func (r *Registry) JoinSession(id model.SessionID, joiner model.Participant) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	// Defensive: a stored session always has its creator, but the original
	// semantics check for the empty case explicitly.
	if len(session.Players) == 0 {
		return nil, model.ErrSessionEmpty
	}
	if len(session.Players) >= model.MaxPlayers {
		return nil, model.ErrSessionFull
	}

	session.Players = append(session.Players, joiner)
	session.State = model.SessionStateActive
	session.UpdatedAt = r.clock.Now()

	r.logger.Info("session joined",
		slog.String("session_id", string(id)),
		slog.String("connection_id", string(joiner.ConnectionID)))

	return snapshot(session), nil
}

// RemoveParticipant handles a connection dropping out. If the departing
// participant was alone, the session is deleted; nobody is left to tell.
// If the session held two, the roster is deliberately left untouched and
// only the survivor is reported for notification. A later join on the same
// id will still see the session as full.
func (r *Registry) RemoveParticipant(connID model.ConnectionID) RemovalOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, session := range r.sessions {
		member := session.GetPlayer(connID)
		if member == nil {
			continue
		}

		if len(session.Players) < model.MaxPlayers {
			delete(r.sessions, id)
			r.logger.Info("session deleted, sole participant disconnected",
				slog.String("session_id", string(id)),
				slog.String("connection_id", string(connID)))
			return RemovalOutcome{
				Found:     true,
				Deleted:   true,
				SessionID: id,
				Departed:  *member,
			}
		}

		r.logger.Info("participant disconnected, session kept",
			slog.String("session_id", string(id)),
			slog.String("connection_id", string(connID)))
		return RemovalOutcome{
			Found:     true,
			SessionID: id,
			Departed:  *member,
			Survivors: session.Opponents(connID),
		}
	}

	return RemovalOutcome{}
}

// CloseSession tears a session down and reports the members that must be
// evicted from the delivery group. Notifying them is the caller's job.
func (r *Registry) CloseSession(id model.SessionID) ([]model.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}

	evicted := make([]model.Participant, len(session.Players))
	copy(evicted, session.Players)

	session.State = model.SessionStateClosed
	session.Players = nil
	delete(r.sessions, id)

	r.logger.Info("session closed",
		slog.String("session_id", string(id)),
		slog.Int("evicted", len(evicted)))

	return evicted, nil
}

// GetSession returns a read-only snapshot of a session
func (r *Registry) GetSession(id model.SessionID) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return snapshot(session), nil
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// snapshot copies a session so callers never share the registry's own state
func snapshot(s *model.Session) *model.Session {
	cp := *s
	cp.Players = make([]model.Participant, len(s.Players))
	copy(cp.Players, s.Players)
	return &cp
}
