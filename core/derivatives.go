package core

import (
	"sync"
	"time"

	"vnmarket-stream/events"
)

const basisHistoryMaxLen = 3600

type contractState struct {
	price       float64
	volume      int64
	change      float64
	changePct   float64
	lastUpdated time.Time
}

// DerivativesTracker tracks every live VN30 futures contract and picks the
// "active" one: the contract with the highest cumulative session volume,
// ties (including the first update) broken in favor of the just-updated
// contract.
type DerivativesTracker struct {
	mu        sync.RWMutex
	contracts map[string]*contractState
	active    string
	spotValue float64
	history   []events.BasisPoint
}

func NewDerivativesTracker() *DerivativesTracker {
	return &DerivativesTracker{contracts: make(map[string]*contractState)}
}

// UpdateSpot records the latest VN30 index value used for the basis
// calculation.
func (d *DerivativesTracker) UpdateSpot(value float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spotValue = value
}

// UpdateContract records a trade on one futures contract and recomputes
// which contract is active and the current basis.
func (d *DerivativesTracker) UpdateContract(symbol string, price float64, volume int64, change, changePct float64, at time.Time) events.DerivativesData {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.contracts[symbol]
	if !ok {
		c = &contractState{}
		d.contracts[symbol] = c
	}
	c.price = price
	c.volume = volume
	c.change = change
	c.changePct = changePct
	c.lastUpdated = at

	// Highest cumulative session volume wins; ties (including the very
	// first update, when d.active is still empty) favor the contract just
	// updated.
	if d.active == "" || c.volume >= d.contracts[d.active].volume {
		d.active = symbol
	}

	return d.snapshotLocked(at)
}

func (d *DerivativesTracker) snapshotLocked(at time.Time) events.DerivativesData {
	if d.active == "" {
		return events.DerivativesData{}
	}
	c := d.contracts[d.active]
	out := events.DerivativesData{
		FuturesSymbol: d.active,
		Price:         c.price,
		Volume:        c.volume,
		Change:        c.change,
		ChangePct:     c.changePct,
	}

	if c.price > 0 && d.spotValue > 0 {
		basis := c.price - d.spotValue
		bp := events.BasisPoint{
			Timestamp:     at,
			FuturesSymbol: d.active,
			FuturesPrice:  c.price,
			SpotValue:     d.spotValue,
			Basis:         basis,
			BasisPct:      basis / d.spotValue * 100,
			IsPremium:     basis > 0,
		}
		out.CurrentBasis = &bp
		out.IsPremium = bp.IsPremium

		d.history = append(d.history, bp)
		if len(d.history) > basisHistoryMaxLen {
			d.history = d.history[len(d.history)-basisHistoryMaxLen:]
		}
	}
	return out
}

func (d *DerivativesTracker) Snapshot() events.DerivativesData {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.active == "" {
		return events.DerivativesData{}
	}
	c := d.contracts[d.active]
	out := events.DerivativesData{
		FuturesSymbol: d.active,
		Price:         c.price,
		Volume:        c.volume,
		Change:        c.change,
		ChangePct:     c.changePct,
		IsPremium:     c.price > 0,
	}
	if len(d.history) > 0 {
		last := d.history[len(d.history)-1]
		out.CurrentBasis = &last
		out.IsPremium = last.IsPremium
	}
	return out
}

// BasisHistory returns a copy of the recorded basis points, newest last.
func (d *DerivativesTracker) BasisHistory() []events.BasisPoint {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]events.BasisPoint, len(d.history))
	copy(out, d.history)
	return out
}

func (d *DerivativesTracker) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contracts = make(map[string]*contractState)
	d.active = ""
	d.history = nil
}
