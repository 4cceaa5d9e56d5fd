package core

import (
	"sync"
	"time"

	"vnmarket-stream/events"
)

const (
	foreignSpeedWindow  = 5 * time.Minute
	foreignHistoryMaxLen = 600
)

type foreignSample struct {
	at   time.Time
	buy  int64
	sell int64
}

type foreignEntry struct {
	state       events.ForeignState
	lastCumBuy  int64
	lastCumSell int64
	history     []foreignSample
	prevSpeedBuy  float64
	prevSpeedSell float64
}

// ForeignTracker maintains per-symbol foreign buy/sell flow with a trailing
// 5-minute speed and an acceleration (speed delta vs the prior update).
// Upstream sends cumulative-since-open volumes; a stream reconnect can
// restart that counter at zero, which would otherwise show as a huge
// negative delta — any regression is clamped to a zero delta instead.
type ForeignTracker struct {
	mu      sync.RWMutex
	symbols map[string]*foreignEntry
}

func NewForeignTracker() *ForeignTracker {
	return &ForeignTracker{symbols: make(map[string]*foreignEntry)}
}

func (f *ForeignTracker) Update(fe events.Foreign, at time.Time) events.ForeignState {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.symbols[fe.Symbol]
	if !ok {
		e = &foreignEntry{state: events.ForeignState{Symbol: fe.Symbol}}
		f.symbols[fe.Symbol] = e
	}

	deltaBuy := fe.FBuyVol - e.lastCumBuy
	deltaSell := fe.FSellVol - e.lastCumSell
	if deltaBuy < 0 {
		deltaBuy = 0
	}
	if deltaSell < 0 {
		deltaSell = 0
	}
	e.lastCumBuy = fe.FBuyVol
	e.lastCumSell = fe.FSellVol

	e.history = append(e.history, foreignSample{at: at, buy: deltaBuy, sell: deltaSell})
	if len(e.history) > foreignHistoryMaxLen {
		e.history = e.history[len(e.history)-foreignHistoryMaxLen:]
	}

	cutoff := at.Add(-foreignSpeedWindow)
	var windowBuy, windowSell int64
	idx := 0
	for i, s := range e.history {
		if s.at.Before(cutoff) {
			idx = i + 1
			continue
		}
		windowBuy += s.buy
		windowSell += s.sell
	}
	e.history = e.history[idx:]

	minutes := foreignSpeedWindow.Minutes()
	speedBuy := float64(windowBuy) / minutes
	speedSell := float64(windowSell) / minutes

	e.state.BuyAcceleration = speedBuy - e.prevSpeedBuy
	e.state.SellAcceleration = speedSell - e.prevSpeedSell
	e.prevSpeedBuy = speedBuy
	e.prevSpeedSell = speedSell

	e.state.BuyVolume = fe.FBuyVol
	e.state.SellVolume = fe.FSellVol
	e.state.NetVolume = e.state.BuyVolume - e.state.SellVolume
	e.state.BuyValue = fe.FBuyVal
	e.state.SellValue = fe.FSellVal
	e.state.NetValue = fe.FBuyVal - fe.FSellVal
	e.state.TotalRoom = fe.TotalRoom
	e.state.CurrentRoom = fe.CurrentRoom
	e.state.BuySpeedPerMin = speedBuy
	e.state.SellSpeedPerMin = speedSell
	e.state.LastUpdated = at

	return e.state
}

// Reconcile re-seeds the cumulative baseline for a symbol from a fresh REST
// snapshot without touching the delta history or emitting a state update.
// Used after a stream reconnect so the next Update computes its delta
// against the current cumulative values instead of the ones in effect
// before the gap.
func (f *ForeignTracker) Reconcile(fe events.Foreign) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.symbols[fe.Symbol]
	if !ok {
		e = &foreignEntry{state: events.ForeignState{Symbol: fe.Symbol}}
		f.symbols[fe.Symbol] = e
	}
	e.lastCumBuy = fe.FBuyVol
	e.lastCumSell = fe.FSellVol
}

func (f *ForeignTracker) Get(symbol string) (events.ForeignState, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.symbols[symbol]
	if !ok {
		return events.ForeignState{}, false
	}
	return e.state, true
}

// Summary aggregates all tracked symbols into a top-buy/top-sell leaderboard.
func (f *ForeignTracker) Summary(topN int) events.ForeignSummary {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var summary events.ForeignSummary
	states := make([]events.ForeignState, 0, len(f.symbols))
	for _, e := range f.symbols {
		states = append(states, e.state)
		summary.TotalBuyValue += e.state.BuyValue
		summary.TotalSellValue += e.state.SellValue
	}
	summary.TotalNetValue = summary.TotalBuyValue - summary.TotalSellValue

	summary.TopBuy = topByNetValue(states, topN, true)
	summary.TopSell = topByNetValue(states, topN, false)
	return summary
}

func topByNetValue(states []events.ForeignState, n int, byBuy bool) []events.ForeignState {
	sorted := make([]events.ForeignState, len(states))
	copy(sorted, states)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0; j-- {
			var swap bool
			if byBuy {
				swap = sorted[j].NetValue > sorted[j-1].NetValue
			} else {
				swap = sorted[j].NetValue < sorted[j-1].NetValue
			}
			if !swap {
				break
			}
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

func (f *ForeignTracker) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.symbols = make(map[string]*foreignEntry)
}
