// Package stream owns the single connection to the upstream broker feed
// and keeps it alive across drops with exponential backoff, handing every
// decoded frame to the core orchestrator over a channel.
package stream

import (
	"context"
	"log"
	"time"

	"vnmarket-stream/ingest"
)

// State is one node of the Idle -> Connecting -> Streaming -> Backoff ->
// Stopped reconnect state machine.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateStreaming  State = "streaming"
	StateBackoff    State = "backoff"
	StateStopped    State = "stopped"
)

const (
	baseReconnectDelay = 2 * time.Second
	maxReconnectDelay  = 60 * time.Second
	stableAfter        = 3 * time.Second
)

// TokenSource supplies the bearer token to use for the next connection
// attempt, refreshing it if necessary.
type TokenSource interface {
	GetValidToken(ctx context.Context) (string, error)
}

// StatusSink is notified whenever the upstream connection state flips
// between connected and disconnected, so browser clients can be told.
type StatusSink interface {
	BroadcastStatus(connected bool)
}

// Supervisor drives one upstream connection end to end.
type Supervisor struct {
	url       string
	channels  []string
	tokens    TokenSource
	status    StatusSink
	out       chan<- ingest.Parsed
	snapshots *SnapshotFetcher

	state State
}

func NewSupervisor(url string, channels []string, tokens TokenSource, status StatusSink, out chan<- ingest.Parsed, snapshots *SnapshotFetcher) *Supervisor {
	return &Supervisor{
		url:       url,
		channels:  channels,
		tokens:    tokens,
		status:    status,
		out:       out,
		snapshots: snapshots,
		state:     StateIdle,
	}
}

func (s *Supervisor) State() State { return s.state }

// Run drives the reconnect loop until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) {
	delay := baseReconnectDelay
	reconnecting := false

	for {
		if ctx.Err() != nil {
			s.state = StateStopped
			return
		}

		s.state = StateConnecting
		conn, err := s.connectOnce(ctx)
		if err != nil {
			log.Printf("stream: connect failed: %v", err)
			s.state = StateBackoff
			if !s.sleep(ctx, delay) {
				s.state = StateStopped
				return
			}
			delay = nextDelay(delay)
			continue
		}

		// Wait briefly to confirm the connection is stable before trusting
		// it enough to reconcile against, then re-seed the foreign tracker
		// from a fresh REST snapshot so the next delta isn't computed
		// against the pre-disconnect cumulative values. Skipped on the very
		// first connection: there is no prior state to reconcile.
		if reconnecting {
			if !s.sleep(ctx, stableAfter) {
				s.state = StateStopped
				conn.close()
				return
			}
			s.reconcile(ctx)
		}
		reconnecting = true

		s.state = StateStreaming
		s.status.BroadcastStatus(true)
		connectedAt := time.Now()

		readErr := s.readLoop(ctx, conn)

		s.status.BroadcastStatus(false)
		conn.close()

		if ctx.Err() != nil {
			s.state = StateStopped
			return
		}

		log.Printf("stream: connection lost: %v", readErr)
		if time.Since(connectedAt) >= stableAfter {
			// Stayed up long enough to be considered healthy: start the
			// backoff fresh rather than carrying over a long delay from an
			// earlier, unrelated failure.
			delay = baseReconnectDelay
		}
		s.state = StateBackoff
		if !s.sleep(ctx, delay) {
			s.state = StateStopped
			return
		}
		delay = nextDelay(delay)
	}
}

// reconcile fetches a fresh cumulative securities snapshot and hands each
// item to the core as a synthetic ReconcileForeign event, re-seeding the
// foreign tracker's baseline without emitting deltas for the gap.
func (s *Supervisor) reconcile(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	token, err := s.tokens.GetValidToken(ctx)
	if err != nil {
		log.Printf("stream: reconcile: could not get a token: %v", err)
		return
	}
	snapshot, err := s.snapshots.FetchForeignSnapshot(ctx, token)
	if err != nil {
		log.Printf("stream: reconcile: snapshot fetch failed, first deltas after this reconnect may be inaccurate: %v", err)
		return
	}
	for i := range snapshot {
		select {
		case s.out <- ingest.Parsed{RType: "ReconcileForeign", Foreign: &snapshot[i]}:
		case <-ctx.Done():
			return
		}
	}
	log.Printf("stream: reconcile complete, %d items", len(snapshot))
}

func (s *Supervisor) connectOnce(ctx context.Context) (*client, error) {
	token, err := s.tokens.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}
	c := newClient(s.url, token)
	if err := c.connect(); err != nil {
		return nil, err
	}
	if err := c.subscribe(s.channels); err != nil {
		c.close()
		return nil, err
	}
	return c, nil
}

func (s *Supervisor) readLoop(ctx context.Context, c *client) error {
	for {
		raw, err := c.readMessage()
		if err != nil {
			return err
		}
		for _, p := range ingest.ParseMessage(raw) {
			select {
			case s.out <- p:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (s *Supervisor) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > maxReconnectDelay {
		d = maxReconnectDelay
	}
	return d
}
