package core

import (
	"sync"
	"time"

	"vnmarket-stream/events"
)

const indexIntradayMaxLen = 21600

// IndexTracker keeps the latest snapshot and an intraday sparkline per
// tracked index (VN30, VNINDEX, ...).
type IndexTracker struct {
	mu      sync.RWMutex
	indices map[string]*events.IndexData
}

func NewIndexTracker() *IndexTracker {
	return &IndexTracker{indices: make(map[string]*events.IndexData)}
}

func (t *IndexTracker) Update(idx events.Index, at time.Time) events.IndexData {
	t.mu.Lock()
	defer t.mu.Unlock()

	d, ok := t.indices[idx.IndexID]
	if !ok {
		d = &events.IndexData{IndexID: idx.IndexID}
		t.indices[idx.IndexID] = d
	}

	d.Value = idx.IndexValue
	d.PriorValue = idx.PriorIndexValue
	d.Change = idx.Change
	d.RatioChange = idx.RatioChange
	d.TotalVolume = idx.TotalQtty
	d.Advances = idx.Advances
	d.Declines = idx.Declines
	d.NoChanges = idx.NoChanges
	d.LastUpdated = at

	if idx.IndexValue != 0 {
		d.Intraday = append(d.Intraday, events.IntradayPoint{Timestamp: at, Value: idx.IndexValue})
		if len(d.Intraday) > indexIntradayMaxLen {
			d.Intraday = d.Intraday[len(d.Intraday)-indexIntradayMaxLen:]
		}
	}

	return *d
}

func (t *IndexTracker) Get(indexID string) (events.IndexData, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.indices[indexID]
	if !ok {
		return events.IndexData{}, false
	}
	return *d, true
}

func (t *IndexTracker) Snapshot() map[string]events.IndexData {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]events.IndexData, len(t.indices))
	for k, v := range t.indices {
		out[k] = *v
	}
	return out
}

func (t *IndexTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.indices = make(map[string]*events.IndexData)
}
