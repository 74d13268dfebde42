package cli

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/Aryan9626/chess-app/internal/protocol"
)

// WSClient is a websocket connection to the gateway
type WSClient struct {
	conn *websocket.Conn
}

// DialGateway connects to the server's websocket endpoint. A token attaches
// the logged-in identity; a display name covers anonymous play.
func DialGateway(serverURL, token, displayName string) (*WSClient, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c := &WSClient{conn: conn}

	if displayName != "" {
		if err := c.Send(protocol.ActionSetName, protocol.SetNameRequest{DisplayName: displayName}); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return c, nil
}

// Send writes an envelope to the gateway
func (c *WSClient) Send(action string, payload any) error {
	env, err := protocol.NewEnvelope(action, payload)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(env)
}

// Read returns the next envelope from the gateway
func (c *WSClient) Read() (protocol.Envelope, error) {
	var env protocol.Envelope
	if err := c.conn.ReadJSON(&env); err != nil {
		return protocol.Envelope{}, err
	}
	return env, nil
}

// Await reads until an envelope with the given action arrives and returns
// its payload, surfacing structured errors from the ack.
func (c *WSClient) Await(action string) (json.RawMessage, error) {
	for {
		env, err := c.Read()
		if err != nil {
			return nil, err
		}
		if env.Action != action {
			continue
		}

		var errResp protocol.ErrorResponse
		if err := json.Unmarshal(env.Payload, &errResp); err == nil && errResp.Error {
			return nil, fmt.Errorf("%s", errResp.Message)
		}
		return env.Payload, nil
	}
}

// Close closes the connection
func (c *WSClient) Close() error {
	return c.conn.Close()
}
