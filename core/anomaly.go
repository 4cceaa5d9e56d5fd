package core

import (
	"fmt"
	"sync"
	"time"

	"vnmarket-stream/events"
	"vnmarket-stream/helpers"
)

const (
	volumeSpikeWindow     = 20 * time.Minute
	volumeSpikeMinSamples = 10
	volumeSpikeRatio      = 3.0
	volumeHistoryMaxLen   = 1200

	foreignAccelWindow        = 5 * time.Minute
	foreignAccelRatio         = 0.3
	foreignAccelFloor         = 1e9
	foreignAccelHistoryMaxLen = 300
)

type volumeSample struct {
	at     time.Time
	volume int64
}

type netValueSample struct {
	at    time.Time
	value float64
}

// AnomalyDetector runs four independent, stateless-per-call detectors over
// rolling per-symbol history and hands any hit to the AlertService.
type AnomalyDetector struct {
	mu sync.Mutex

	volumeHistory map[string][]volumeSample
	netValueHistory map[string][]netValueSample
	basisSign     map[string]int // +1 premium, -1 discount

	alerts *AlertService
}

func NewAnomalyDetector(alerts *AlertService) *AnomalyDetector {
	return &AnomalyDetector{
		volumeHistory:   make(map[string][]volumeSample),
		netValueHistory: make(map[string][]netValueSample),
		basisSign:       make(map[string]int),
		alerts:          alerts,
	}
}

// CheckVolumeSpike compares the latest trade's per-trade volume against the
// mean of all samples (the latest included) in the trailing 20-minute
// window, once that window holds at least 10 samples, firing when the ratio
// exceeds 3.0. At most 1200 samples are kept per symbol.
func (d *AnomalyDetector) CheckVolumeSpike(symbol string, tradeVol int64, at time.Time) {
	d.mu.Lock()
	hist := append(d.volumeHistory[symbol], volumeSample{at: at, volume: tradeVol})
	cutoff := at.Add(-volumeSpikeWindow)
	start := 0
	for i, s := range hist {
		if s.at.Before(cutoff) {
			start = i + 1
			continue
		}
		break
	}
	hist = hist[start:]
	if len(hist) > volumeHistoryMaxLen {
		hist = hist[len(hist)-volumeHistoryMaxLen:]
	}
	d.volumeHistory[symbol] = hist

	if len(hist) < volumeSpikeMinSamples {
		d.mu.Unlock()
		return
	}

	var sum int64
	for _, s := range hist {
		sum += s.volume
	}
	baseline := float64(sum) / float64(len(hist))
	current := float64(hist[len(hist)-1].volume)
	d.mu.Unlock()

	if baseline <= 0 {
		return
	}
	ratio := current / baseline
	if ratio > volumeSpikeRatio {
		d.fire(events.Alert{
			AlertType: events.AlertVolumeSpike,
			Severity:  events.SeverityWarning,
			Symbol:    symbol,
			Message:   fmt.Sprintf("volume %.0fx above trailing 20-minute average", ratio),
			Data:      map[string]any{"ratio": ratio, "current": current, "baseline": baseline},
			CreatedAt: at,
		})
	}
}

// CheckPriceBreakout fires when a trade prints at or beyond the ceiling or
// floor for the day.
func (d *AnomalyDetector) CheckPriceBreakout(symbol string, price, ceiling, floor float64, at time.Time) {
	switch {
	case ceiling > 0 && price >= ceiling:
		d.fire(events.Alert{
			AlertType: events.AlertPriceBreakout,
			Severity:  events.SeverityCritical,
			Symbol:    symbol,
			Message:   "price reached ceiling",
			Data:      map[string]any{"price": price, "ceiling": ceiling, "direction": "ceiling"},
			CreatedAt: at,
		})
	case floor > 0 && price <= floor:
		d.fire(events.Alert{
			AlertType: events.AlertPriceBreakout,
			Severity:  events.SeverityCritical,
			Symbol:    symbol,
			Message:   "price reached floor",
			Data:      map[string]any{"price": price, "floor": floor, "direction": "floor"},
			CreatedAt: at,
		})
	}
}

// CheckForeignAcceleration compares the symbol's net foreign value now
// against its value 5 minutes ago, firing when the change exceeds 30% of a
// past value whose magnitude is at least 1e9 (small bases produce
// meaningless ratios).
func (d *AnomalyDetector) CheckForeignAcceleration(symbol string, netValue float64, at time.Time) {
	d.mu.Lock()
	hist := append(d.netValueHistory[symbol], netValueSample{at: at, value: netValue})
	if len(hist) > foreignAccelHistoryMaxLen {
		hist = hist[len(hist)-foreignAccelHistoryMaxLen:]
	}
	d.netValueHistory[symbol] = hist

	// Find the most recent sample at or before now-5min. If none exists yet
	// (the window hasn't filled), there is nothing to compare against.
	cutoff := at.Add(-foreignAccelWindow)
	pastIdx := -1
	for i, s := range hist {
		if !s.at.After(cutoff) {
			pastIdx = i
			continue
		}
		break
	}
	d.mu.Unlock()

	if pastIdx == -1 {
		return
	}
	past := hist[pastIdx]

	if abs(past.value) < foreignAccelFloor {
		return
	}
	change := (netValue - past.value) / abs(past.value)
	if abs(change) > foreignAccelRatio {
		direction := "selling"
		if netValue > past.value {
			direction = "buying"
		}
		d.fire(events.Alert{
			AlertType: events.AlertForeignAcceleration,
			Severity:  events.SeverityWarning,
			Symbol:    symbol,
			Message:   fmt.Sprintf("foreign net flow accelerated %.1f%% over 5 minutes to %s", change*100, helpers.FormatVND(netValue)),
			Data:      map[string]any{"change_pct": change * 100, "current": netValue, "past": past.value, "direction": direction},
			CreatedAt: at,
		})
	}
}

// CheckBasisFlip fires when the futures/spot basis moves between premium
// (basis > 0) and discount (basis <= 0). The first observation for a
// contract only records its state.
func (d *AnomalyDetector) CheckBasisFlip(futuresSymbol string, basis float64, at time.Time) {
	sign := -1
	if basis > 0 {
		sign = 1
	}

	d.mu.Lock()
	prev, known := d.basisSign[futuresSymbol]
	d.basisSign[futuresSymbol] = sign
	d.mu.Unlock()

	if !known || prev == sign {
		return
	}
	message := "futures basis flipped premium→discount"
	if sign == 1 {
		message = "futures basis flipped discount→premium"
	}
	d.fire(events.Alert{
		AlertType: events.AlertBasisDivergence,
		Severity:  events.SeverityWarning,
		Symbol:    futuresSymbol,
		Message:   message,
		Data:      map[string]any{"basis": basis},
		CreatedAt: at,
	})
}

func (d *AnomalyDetector) fire(a events.Alert) {
	d.alerts.Fire(a)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
