// Package publish implements the trailing-edge throttled broadcaster that
// sits between the orchestrator's state mutations and the WebSocket server:
// a burst of updates on a channel collapses into at most one broadcast per
// throttle interval, with the final state always winning.
package publish

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"vnmarket-stream/core"
)

// Broadcaster is implemented by the WebSocket server manager.
type Broadcaster interface {
	Broadcast(channel string, payload []byte)
	ClientCount(channel string) int
}

// Snapshotter builds the JSON-ready payload for a channel on demand, called
// only when a broadcast is actually about to happen.
type Snapshotter interface {
	Snapshot() any           // market channel
	ForeignSnapshot() any    // foreign channel
	IndexSnapshot() any      // index channel
	AlertSnapshot() any      // alert channel
}

// Publisher throttles outbound broadcasts per channel.
type Publisher struct {
	broadcaster Broadcaster
	snapshot    Snapshotter
	throttle    time.Duration

	mu      sync.Mutex
	lastAt  map[string]time.Time
	pending map[string]*time.Timer
}

func NewPublisher(broadcaster Broadcaster, snapshot Snapshotter, throttle time.Duration) *Publisher {
	return &Publisher{
		broadcaster: broadcaster,
		snapshot:    snapshot,
		throttle:    throttle,
		lastAt:      make(map[string]time.Time),
		pending:     make(map[string]*time.Timer),
	}
}

// Notify implements core.Notifier. Called from the orchestrator's single
// goroutine after it mutates state for the given channel; never blocks.
func (p *Publisher) Notify(channel string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.lastAt[channel])
	if elapsed >= p.throttle {
		p.lastAt[channel] = time.Now()
		go p.doBroadcast(channel)
		return
	}

	if _, scheduled := p.pending[channel]; scheduled {
		return
	}
	delay := p.throttle - elapsed
	p.pending[channel] = time.AfterFunc(delay, func() {
		p.mu.Lock()
		delete(p.pending, channel)
		p.lastAt[channel] = time.Now()
		p.mu.Unlock()
		p.doBroadcast(channel)
	})
}

// Stop cancels any pending deferred broadcasts. Call on shutdown.
func (p *Publisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch, t := range p.pending {
		t.Stop()
		delete(p.pending, ch)
	}
}

func (p *Publisher) doBroadcast(channel string) {
	if p.broadcaster.ClientCount(channel) == 0 {
		return
	}

	var data any
	switch channel {
	case core.ChannelMarket:
		data = p.snapshot.Snapshot()
	case core.ChannelForeign:
		data = p.snapshot.ForeignSnapshot()
	case core.ChannelIndex:
		data = p.snapshot.IndexSnapshot()
	case core.ChannelAlert:
		data = p.snapshot.AlertSnapshot()
	default:
		log.Printf("publish: unknown channel %q", channel)
		return
	}

	payload, err := json.Marshal(map[string]any{"type": channel, "data": data})
	if err != nil {
		log.Printf("publish: marshal failed for channel %q: %v", channel, err)
		return
	}
	p.broadcaster.Broadcast(channel, payload)
}

// BroadcastStatus pushes a connection-status message to every non-empty
// channel, used when the upstream feed connects or disconnects.
func (p *Publisher) BroadcastStatus(connected bool) {
	payload, err := json.Marshal(map[string]any{"type": "status", "connected": connected})
	if err != nil {
		return
	}
	for _, ch := range []string{core.ChannelMarket, core.ChannelForeign, core.ChannelIndex, core.ChannelAlert} {
		if p.broadcaster.ClientCount(ch) > 0 {
			p.broadcaster.Broadcast(ch, payload)
		}
	}
}
