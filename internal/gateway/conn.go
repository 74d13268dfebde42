package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Aryan9626/chess-app/internal/model"
	"github.com/Aryan9626/chess-app/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Signal payloads carry SDP
	// blobs, which run larger than moves.
	maxMessageSize = 16 * 1024

	// Outbound buffer per connection; sends beyond this are dropped.
	sendBufferSize = 256
)

// Conn is one logical participant connection. All writes go through the
// buffered send channel and a single writer goroutine, which preserves the
// per-sender ordering the relay promises.
type Conn struct {
	id          model.ConnectionID
	displayName string

	gateway *Gateway
	ws      *websocket.Conn
	logger  *slog.Logger

	// sendMu guards send against closeSend, so a delivery racing a
	// disconnect drops instead of sending on a closed channel.
	sendMu sync.Mutex
	send   chan []byte
	closed bool
}

// Participant returns this connection's identity as seen by the registry
func (c *Conn) Participant() model.Participant {
	return model.Participant{
		ConnectionID: c.id,
		DisplayName:  c.displayName,
	}
}

// enqueue hands an envelope to the writer goroutine. It never blocks; a full
// buffer means the peer is not keeping up and the message is dropped, and a
// connection already torn down is just an unreachable target.
func (c *Conn) enqueue(env protocol.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return model.ErrTargetUnreachable
	}
	select {
	case c.send <- data:
		return nil
	default:
		return model.ErrTargetUnreachable
	}
}

// closeSend shuts the outbound channel exactly once. Safe against concurrent
// enqueue calls; later deliveries report the target as unreachable.
func (c *Conn) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump pumps messages from the websocket to the gateway dispatcher.
// Each inbound message is dispatched to completion before the next is read,
// so one connection's requests never race each other.
func (c *Conn) readPump() {
	defer func() {
		c.gateway.handleDisconnect(c)
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("read error", slog.Any("error", err))
			}
			return
		}

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.gateway.ackError(c, "", "malformed message")
			continue
		}
		c.gateway.dispatch(c, env)
	}
}

// writePump pumps messages from the send channel to the websocket
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
