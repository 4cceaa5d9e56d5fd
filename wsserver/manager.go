// Package wsserver is the browser-facing WebSocket fan-out layer: it
// accepts client connections on one of four channels (market, foreign,
// index, alerts) and broadcasts publisher payloads to every subscriber on
// that channel, each through its own bounded queue so one slow client can
// never stall another.
package wsserver

import (
	"sync"

	"github.com/gorilla/websocket"
	"vnmarket-stream/metrics"
)

// Client is one subscriber connection on one channel.
type Client struct {
	conn    *websocket.Conn
	channel string
	send    chan []byte
	ip      string
}

// Manager owns every connected client, grouped by channel.
type Manager struct {
	queueSize int

	mu       sync.RWMutex
	clients  map[string]map[*Client]bool // channel -> clients
	connsByIP map[string]int
}

func NewManager(queueSize int) *Manager {
	return &Manager{
		queueSize: queueSize,
		clients:   make(map[string]map[*Client]bool),
		connsByIP: make(map[string]int),
	}
}

func (m *Manager) register(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clients[c.channel] == nil {
		m.clients[c.channel] = make(map[*Client]bool)
	}
	m.clients[c.channel][c] = true
	m.connsByIP[c.ip]++
	metrics.WSConnectionsActive.Inc()
}

func (m *Manager) unregister(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.clients[c.channel]; ok {
		if _, present := set[c]; present {
			delete(set, c)
			close(c.send)
			metrics.WSConnectionsActive.Dec()
			m.connsByIP[c.ip]--
			if m.connsByIP[c.ip] <= 0 {
				delete(m.connsByIP, c.ip)
			}
		}
	}
}

// ConnCountForIP reports how many live connections an IP currently holds,
// used to enforce WSMaxConnPerIP before upgrading a new one.
func (m *Manager) ConnCountForIP(ip string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connsByIP[ip]
}

// Broadcast pushes payload to every client subscribed to channel. A client
// whose queue is already full has its oldest queued message dropped to make
// room; it never blocks the broadcaster.
func (m *Manager) Broadcast(channel string, payload []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.clients[channel]
	if len(set) == 0 {
		return
	}
	for c := range set {
		select {
		case c.send <- payload:
		default:
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- payload:
			default:
			}
		}
	}
	metrics.WSMessagesSentTotal.WithLabelValues(channel).Add(float64(len(set)))
}

// ClientCount implements publish.Broadcaster.
func (m *Manager) ClientCount(channel string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients[channel])
}

// DisconnectAll closes every connection, used on shutdown.
func (m *Manager) DisconnectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, set := range m.clients {
		for c := range set {
			c.conn.Close()
		}
	}
}
