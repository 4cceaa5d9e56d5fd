package core

import (
	"sync"

	"vnmarket-stream/events"
)

// SessionAggregator keeps a running mua/ban/neutral volume and value tally
// per symbol, broken down by auction phase, for the current trading day.
type SessionAggregator struct {
	mu    sync.RWMutex
	stats map[string]*events.SessionStats
}

func NewSessionAggregator() *SessionAggregator {
	return &SessionAggregator{stats: make(map[string]*events.SessionStats)}
}

func (a *SessionAggregator) Add(ct events.ClassifiedTrade) events.SessionStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.stats[ct.Symbol]
	if !ok {
		s = &events.SessionStats{Symbol: ct.Symbol}
		a.stats[ct.Symbol] = s
	}

	var bucket *events.SessionBreakdown
	switch ct.TradingSession {
	case events.SessionATO:
		bucket = &s.ATO
	case events.SessionATC:
		bucket = &s.ATC
	default:
		bucket = &s.Continuous
	}

	switch ct.TradeType {
	case events.MuaChuDong:
		s.MuaVol += ct.Volume
		s.MuaVal += ct.Value
		bucket.MuaVol += ct.Volume
	case events.BanChuDong:
		s.BanVol += ct.Volume
		s.BanVal += ct.Value
		bucket.BanVol += ct.Volume
	default:
		s.NeutralVol += ct.Volume
		bucket.NeutralVol += ct.Volume
	}
	s.TotalVol += ct.Volume
	bucket.TotalVol += ct.Volume
	s.LastUpdated = ct.Timestamp

	return *s
}

func (a *SessionAggregator) Get(symbol string) (events.SessionStats, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.stats[symbol]
	if !ok {
		return events.SessionStats{}, false
	}
	return *s, true
}

func (a *SessionAggregator) Snapshot() map[string]events.SessionStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]events.SessionStats, len(a.stats))
	for k, v := range a.stats {
		out[k] = *v
	}
	return out
}

// Reset clears all per-symbol tallies, called at the daily reset boundary.
func (a *SessionAggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats = make(map[string]*events.SessionStats)
}
