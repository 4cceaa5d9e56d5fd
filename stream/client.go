package stream

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// client is a thin wrapper over a single upstream WebSocket connection: JSON
// text frames in, JSON subscribe frames out.
type client struct {
	url     string
	header  http.Header
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func newClient(url, bearerToken string) *client {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+bearerToken)
	h.Set("User-Agent", "vnmarket-stream/1.0")
	return &client{url: url, header: h}
}

func (c *client) connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, c.header)
	if err != nil {
		return fmt.Errorf("stream: dial %s failed: %w", c.url, err)
	}
	c.conn = conn
	return nil
}

// subscribe sends the channel list the upstream feed should push.
func (c *client) subscribe(channels []string) error {
	return c.writeJSON(map[string]any{"action": "subscribe", "channels": channels})
}

func (c *client) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *client) readMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *client) close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
