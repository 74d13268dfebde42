package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Aryan9626/chess-app/internal/dependencies/random"
	"github.com/Aryan9626/chess-app/internal/model"
	"github.com/Aryan9626/chess-app/internal/protocol"
	"github.com/Aryan9626/chess-app/internal/registry"
	"github.com/Aryan9626/chess-app/internal/relay"
	"github.com/Aryan9626/chess-app/internal/services/auth"
)

const (
	// ConnectionIDLength is the length of generated connection ids
	ConnectionIDLength = 20
	// ConnectionIDAlphabet is the characters used in connection ids
	ConnectionIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Cross-origin clients are expected; the session id is the
		// admission gate, not the Origin header.
		return true
	},
}

// Gateway translates transport events into registry calls and registry
// results back into outbound messages. It owns the live connection set and
// the per-session delivery groups; the registry owns the sessions.
type Gateway struct {
	registry    *registry.Registry
	authService *auth.Service
	random      random.Random
	logger      *slog.Logger

	moveRelay   *relay.MoveRelay
	signalRelay *relay.SignalRelay

	mu     sync.RWMutex
	conns  map[model.ConnectionID]*Conn
	groups map[model.SessionID]map[model.ConnectionID]*Conn
}

// New creates a gateway. The auth service is optional; without it every
// connection is anonymous until a setName request arrives.
func New(reg *registry.Registry, authService *auth.Service, rnd random.Random, logger *slog.Logger) *Gateway {
	g := &Gateway{
		registry:    reg,
		authService: authService,
		random:      rnd,
		logger:      logger.With(slog.String("component", "gateway")),
		conns:       make(map[model.ConnectionID]*Conn),
		groups:      make(map[model.SessionID]map[model.ConnectionID]*Conn),
	}
	g.moveRelay = relay.NewMoveRelay(reg, g, logger)
	g.signalRelay = relay.NewSignalRelay(reg, g, logger)
	return g
}

// Ensure the gateway can deliver for the relays
var _ relay.Sender = (*Gateway)(nil)

// ServeWS upgrades an HTTP request to a websocket connection and runs it.
// A valid session token on the request supplies the display name; otherwise
// the connection stays anonymous until it sends setName.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	displayName := ""
	if g.authService != nil {
		if token := extractToken(r); token != "" {
			if session, err := g.authService.ValidateToken(token); err == nil {
				displayName = session.Player.DisplayName
			}
		}
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	conn := &Conn{
		id:          model.ConnectionID("conn_" + g.random.String(ConnectionIDLength, ConnectionIDAlphabet)),
		displayName: displayName,
		gateway:     g,
		ws:          ws,
		send:        make(chan []byte, sendBufferSize),
	}
	conn.logger = g.logger.With(slog.String("connection_id", string(conn.id)))

	g.mu.Lock()
	g.conns[conn.id] = conn
	total := len(g.conns)
	g.mu.Unlock()

	conn.logger.Info("connection established", slog.Int("total_connections", total))

	go conn.writePump()
	go conn.readPump()
}

// Send delivers an envelope to one live connection. Dead or backed-up
// connections yield ErrTargetUnreachable; callers treat that as a drop.
func (g *Gateway) Send(target model.ConnectionID, env protocol.Envelope) error {
	g.mu.RLock()
	conn, ok := g.conns[target]
	g.mu.RUnlock()
	if !ok {
		return model.ErrTargetUnreachable
	}
	return conn.enqueue(env)
}

// dispatch routes one inbound envelope to its handler
func (g *Gateway) dispatch(c *Conn, env protocol.Envelope) {
	switch env.Action {
	case protocol.ActionSetName:
		g.handleSetName(c, env.Payload)
	case protocol.ActionCreateSession:
		g.handleCreateSession(c)
	case protocol.ActionJoinSession:
		g.handleJoinSession(c, env.Payload)
	case protocol.ActionMove:
		g.handleMove(c, env.Payload)
	case protocol.ActionSignal:
		g.handleSignal(c, env.Payload)
	case protocol.ActionCloseSession:
		g.handleCloseSession(c, env.Payload)
	default:
		g.ackError(c, env.Action, "unknown action")
	}
}

func (g *Gateway) handleSetName(c *Conn, payload json.RawMessage) {
	var req protocol.SetNameRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		g.ackError(c, protocol.ActionSetName, "malformed payload")
		return
	}
	c.displayName = req.DisplayName
	c.logger.Info("display name set", slog.String("display_name", req.DisplayName))
}

func (g *Gateway) handleCreateSession(c *Conn) {
	session := g.registry.CreateSession(c.Participant())

	g.joinGroup(session.ID, c)

	g.ack(c, protocol.ActionCreateSession, protocol.CreateSessionResponse{
		SessionID: string(session.ID),
	})
}

func (g *Gateway) handleJoinSession(c *Conn, payload json.RawMessage) {
	var req protocol.JoinSessionRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		g.ackError(c, protocol.ActionJoinSession, "malformed payload")
		return
	}

	session, err := g.registry.JoinSession(model.SessionID(req.SessionID), c.Participant())
	if err != nil {
		// Registry errors go back to the requester only, never broadcast
		g.ackError(c, protocol.ActionJoinSession, err.Error())
		return
	}

	g.joinGroup(session.ID, c)

	snapshot := protocol.SnapshotFromModel(session)
	g.ack(c, protocol.ActionJoinSession, snapshot)

	// Tell the participant who was already waiting
	for _, other := range session.Opponents(c.id) {
		g.push(other.ConnectionID, protocol.ActionOpponentJoined, snapshot)
	}
}

func (g *Gateway) handleMove(c *Conn, payload json.RawMessage) {
	var req protocol.MoveRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		g.ackError(c, protocol.ActionMove, "malformed payload")
		return
	}

	if err := g.moveRelay.RelayMove(model.SessionID(req.SessionID), c.id, req.Payload); err != nil {
		g.ackError(c, protocol.ActionMove, err.Error())
	}
}

func (g *Gateway) handleSignal(c *Conn, payload json.RawMessage) {
	var req protocol.SignalRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		g.ackError(c, protocol.ActionSignal, "malformed payload")
		return
	}

	err := g.signalRelay.RelaySignal(
		model.SessionID(req.SessionID),
		model.ConnectionID(req.TargetConnectionID),
		req.Payload,
	)
	if err != nil {
		g.ackError(c, protocol.ActionSignal, err.Error())
	}
}

func (g *Gateway) handleCloseSession(c *Conn, payload json.RawMessage) {
	var req protocol.CloseSessionRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		g.ackError(c, protocol.ActionCloseSession, "malformed payload")
		return
	}
	sessionID := model.SessionID(req.SessionID)

	evicted, err := g.registry.CloseSession(sessionID)
	if err != nil {
		g.ackError(c, protocol.ActionCloseSession, err.Error())
		return
	}

	// Tell the other members before evicting them; delivery is best-effort
	notice := protocol.CloseSessionRequest{SessionID: req.SessionID}
	for _, p := range evicted {
		if p.ConnectionID != c.id {
			g.push(p.ConnectionID, protocol.ActionCloseSession, notice)
		}
	}

	g.dropGroup(sessionID)

	g.ack(c, protocol.ActionCloseSession, notice)
}

// handleDisconnect runs when a connection's read loop ends. The registry
// decides whether the owning session survives; the gateway only delivers the
// resulting notification.
func (g *Gateway) handleDisconnect(c *Conn) {
	g.mu.Lock()
	if _, ok := g.conns[c.id]; !ok {
		g.mu.Unlock()
		return
	}
	delete(g.conns, c.id)
	c.closeSend()
	for _, members := range g.groups {
		delete(members, c.id)
	}
	total := len(g.conns)
	g.mu.Unlock()

	c.logger.Info("connection closed", slog.Int("total_connections", total))

	outcome := g.registry.RemoveParticipant(c.id)
	if !outcome.Found {
		return
	}
	if outcome.Deleted {
		g.dropGroup(outcome.SessionID)
		return
	}

	departed := protocol.ParticipantFromModel(outcome.Departed)
	for _, survivor := range outcome.Survivors {
		g.push(survivor.ConnectionID, protocol.ActionPlayerDisconnected, departed)
	}
}

// joinGroup adds a connection to a session's delivery group
func (g *Gateway) joinGroup(sessionID model.SessionID, c *Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.groups[sessionID] == nil {
		g.groups[sessionID] = make(map[model.ConnectionID]*Conn)
	}
	g.groups[sessionID][c.id] = c
}

// dropGroup evicts every connection from a session's delivery group. The
// connections themselves stay open; only the grouping goes away.
func (g *Gateway) dropGroup(sessionID model.SessionID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.groups, sessionID)
}

// GroupSize returns the number of connections in a session's delivery group
func (g *Gateway) GroupSize(sessionID model.SessionID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.groups[sessionID])
}

// ack sends a success acknowledgement for a request
func (g *Gateway) ack(c *Conn, action string, payload any) {
	env, err := protocol.NewEnvelope(action, payload)
	if err != nil {
		c.logger.Error("failed to marshal ack", slog.Any("error", err))
		return
	}
	if err := c.enqueue(env); err != nil {
		c.logger.Warn("ack dropped", slog.String("action", action))
	}
}

// ackError sends a structured error acknowledgement to the requester only
func (g *Gateway) ackError(c *Conn, action string, message string) {
	env, err := protocol.NewEnvelope(action, protocol.ErrorResponse{
		Error:   true,
		Message: message,
	})
	if err != nil {
		return
	}
	if err := c.enqueue(env); err != nil {
		c.logger.Warn("error ack dropped", slog.String("action", action))
	}
}

// push sends a notification to a connection, dropping it if unreachable
func (g *Gateway) push(target model.ConnectionID, action string, payload any) {
	env, err := protocol.NewEnvelope(action, payload)
	if err != nil {
		g.logger.Error("failed to marshal push", slog.Any("error", err))
		return
	}
	if err := g.Send(target, env); err != nil {
		g.logger.Debug("push dropped",
			slog.String("action", action),
			slog.String("target", string(target)))
	}
}

// extractToken pulls a session token from the upgrade request. Browsers
// cannot set headers on websocket requests, so the query parameter is the
// primary channel.
func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	authHeader := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(authHeader) > len(prefix) && authHeader[:len(prefix)] == prefix {
		return authHeader[len(prefix):]
	}
	return ""
}
