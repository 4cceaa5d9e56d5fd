package wsserver

import (
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var validChannels = map[string]bool{
	"market":  true,
	"foreign": true,
	"index":   true,
	"alerts":  true,
}

// Server wires the Manager to an http.Handler, applying the optional
// bearer-token check and the per-IP connection cap before upgrading.
type Server struct {
	Manager           *Manager
	AuthToken         string
	MaxConnPerIP      int
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration

	upgrader websocket.Upgrader
}

func NewServer(manager *Manager, authToken string, maxConnPerIP int, heartbeatInterval, heartbeatTimeout time.Duration) *Server {
	return &Server{
		Manager:           manager,
		AuthToken:         authToken,
		MaxConnPerIP:      maxConnPerIP,
		HeartbeatInterval: heartbeatInterval,
		HeartbeatTimeout:  heartbeatTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades GET /ws/{channel} to a WebSocket subscription, where
// channel is one of market, foreign, index or alerts.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	channel := r.PathValue("channel")
	if !validChannels[channel] {
		http.Error(w, "unknown channel", http.StatusBadRequest)
		return
	}

	if s.AuthToken != "" && r.URL.Query().Get("token") != s.AuthToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ip := clientIP(r)
	if s.MaxConnPerIP > 0 && s.Manager.ConnCountForIP(ip) >= s.MaxConnPerIP {
		http.Error(w, "too many connections from this address", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("wsserver: upgrade failed: %v", err)
		return
	}

	c := &Client{
		conn:    conn,
		channel: channel,
		send:    make(chan []byte, s.Manager.queueSize),
		ip:      ip,
	}
	s.Manager.register(c)

	go s.sender(c)
	go s.reader(c)
}

func (s *Server) sender(c *Client) {
	ticker := time.NewTicker(s.HeartbeatInterval)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(s.HeartbeatTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.Manager.unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(s.HeartbeatTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Manager.unregister(c)
				return
			}
		}
	}
}

func (s *Server) reader(c *Client) {
	c.conn.SetReadDeadline(time.Now().Add(s.HeartbeatInterval + s.HeartbeatTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(s.HeartbeatInterval + s.HeartbeatTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.Manager.unregister(c)
			return
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
