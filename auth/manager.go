package auth

import (
	"context"
	"log"
	"time"
)

// Manager wraps Client with cache-file bootstrapping and a background
// proactive-refresh loop.
type Manager struct {
	client    *Client
	cacheFile string
}

func NewManager(client *Client, cacheFile string) *Manager {
	return &Manager{client: client, cacheFile: cacheFile}
}

// EnsureAuthenticated loads a cached token if one is fresh enough, otherwise
// logs in, and persists the result either way.
func (m *Manager) EnsureAuthenticated() error {
	if err := m.client.LoadTokenFromFile(m.cacheFile); err == nil && m.client.IsTokenValid() {
		log.Println("auth: using cached token")
		return nil
	}

	log.Println("auth: logging in")
	if err := m.client.Login(); err != nil {
		return err
	}
	if err := m.client.SaveTokenToFile(m.cacheFile); err != nil {
		log.Printf("auth: failed to persist token cache: %v", err)
	}
	log.Printf("auth: token valid until %s", m.client.ExpiresAt().Format(time.RFC3339))
	return nil
}

// RunTokenMonitor checks every 5 minutes whether the token needs a
// proactive refresh and calls onRefresh with the new token when it gets
// one — the caller uses this to reconnect the upstream stream with fresh
// credentials.
func (m *Manager) RunTokenMonitor(ctx context.Context, onRefresh func(string)) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Until(m.client.ExpiresAt()) > refreshMargin {
				continue
			}
			if err := m.client.Login(); err != nil {
				log.Printf("auth: proactive refresh failed: %v", err)
				continue
			}
			if err := m.client.SaveTokenToFile(m.cacheFile); err != nil {
				log.Printf("auth: failed to persist refreshed token: %v", err)
			}
			if onRefresh != nil {
				token, _ := m.client.GetValidToken()
				onRefresh(token)
			}
		}
	}
}

// GetValidToken implements stream.TokenSource.
func (m *Manager) GetValidToken(ctx context.Context) (string, error) {
	return m.client.GetValidToken()
}
