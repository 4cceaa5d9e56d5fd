package core

import (
	"log"
	"time"

	"vnmarket-stream/events"
	"vnmarket-stream/ingest"
	"vnmarket-stream/metrics"
)

// Notifier is implemented by the publisher; the orchestrator calls it after
// mutating state so the throttled broadcaster can decide when to push an
// update to browser clients.
type Notifier interface {
	Notify(channel string)
}

// Persister is implemented by the batch writer; the orchestrator hands it
// finished records to enqueue for bulk insert. Enqueue must never block.
type Persister interface {
	EnqueueTick(events.ClassifiedTrade)
	EnqueueForeign(events.ForeignState)
	EnqueueIndex(events.IndexData)
	EnqueueBasis(events.BasisPoint)
}

const (
	ChannelMarket  = "market"
	ChannelForeign = "foreign"
	ChannelIndex   = "index"
	ChannelAlert   = "alerts"
)

// Orchestrator owns every piece of per-symbol state. Stream events reach it
// through In and are handled by a single goroutine; the daily-reset
// scheduler calls ResetDaily directly, and the API and publisher read state
// through the trackers' locked accessors.
type Orchestrator struct {
	In chan ingest.Parsed

	Quotes      *QuoteCache
	Classifier  *Classifier
	Sessions    *SessionAggregator
	Foreign     *ForeignTracker
	Indices     *IndexTracker
	Derivatives *DerivativesTracker
	Alerts      *AlertService
	Anomaly     *AnomalyDetector

	notifier  Notifier
	persister Persister

	futuresSymbols map[string]bool
}

func NewOrchestrator(notifier Notifier, persister Persister, futuresSymbols []string) *Orchestrator {
	quotes := NewQuoteCache()
	alerts := NewAlertService()

	fset := make(map[string]bool, len(futuresSymbols))
	for _, s := range futuresSymbols {
		fset[s] = true
	}

	o := &Orchestrator{
		In:             make(chan ingest.Parsed, 4096),
		Quotes:         quotes,
		Classifier:     NewClassifier(quotes),
		Sessions:       NewSessionAggregator(),
		Foreign:        NewForeignTracker(),
		Indices:        NewIndexTracker(),
		Derivatives:    NewDerivativesTracker(),
		Alerts:         alerts,
		Anomaly:        NewAnomalyDetector(alerts),
		notifier:       notifier,
		persister:      persister,
		futuresSymbols: fset,
	}

	alerts.OnFire(func(a events.Alert) {
		metrics.AlertSignalsFiredTotal.WithLabelValues(string(a.AlertType)).Inc()
		if o.notifier != nil {
			o.notifier.Notify(ChannelAlert)
		}
	})

	return o
}

// SetNotifier assigns the notifier after construction, breaking the
// construction-order cycle between the orchestrator and the publisher
// (the publisher needs the orchestrator as a Snapshotter, the orchestrator
// needs the publisher as a Notifier). Must be called before Run starts
// processing events that can fire notifications.
func (o *Orchestrator) SetNotifier(n Notifier) {
	o.notifier = n
}

// Run processes events until In is closed. Meant to be the body of the
// single consumer goroutine; never call it from more than one goroutine.
func (o *Orchestrator) Run() {
	for p := range o.In {
		o.handle(p)
	}
}

func (o *Orchestrator) handle(p ingest.Parsed) {
	now := time.Now()
	metrics.UpstreamMessagesReceivedTotal.WithLabelValues(p.RType).Inc()

	switch p.RType {
	case "Trade":
		o.handleTrade(*p.Trade, now)
	case "Quote":
		o.Quotes.UpdateQuote(*p.Quote)
	case "R":
		o.handleForeign(*p.Foreign, now)
	case "ReconcileForeign":
		o.Foreign.Reconcile(*p.Foreign)
	case "MI":
		o.handleIndex(*p.Index, now)
	case "B":
		// OHLC bars are counted in the received-messages metric and
		// otherwise dropped; they are neither cached nor aggregated.
	default:
		log.Printf("orchestrator: unhandled RType %q", p.RType)
	}
}

func (o *Orchestrator) handleTrade(t events.Trade, now time.Time) {
	o.Quotes.UpdateTrade(t)

	if o.futuresSymbols[t.Symbol] {
		o.handleFuturesTrade(t, now)
		return
	}

	start := time.Now()
	ct := o.Classifier.Classify(t, now)
	metrics.TradeClassificationDuration.Observe(time.Since(start).Seconds())
	o.Sessions.Add(ct)
	o.persister.EnqueueTick(ct)

	if q, ok := o.Quotes.Quote(t.Symbol); ok {
		o.Anomaly.CheckPriceBreakout(t.Symbol, t.LastPrice, q.Ceiling, q.Floor, now)
	}
	o.Anomaly.CheckVolumeSpike(t.Symbol, t.LastVol, now)

	o.notifier.Notify(ChannelMarket)
}

func (o *Orchestrator) handleFuturesTrade(t events.Trade, now time.Time) {
	data := o.Derivatives.UpdateContract(t.Symbol, t.LastPrice, t.TotalVol, t.Change, t.RatioChange, now)
	ct := o.Classifier.Classify(t, now)
	o.persister.EnqueueTick(ct)
	if data.CurrentBasis != nil {
		o.persister.EnqueueBasis(*data.CurrentBasis)
		o.Anomaly.CheckBasisFlip(data.FuturesSymbol, data.CurrentBasis.Basis, now)
	}
	o.notifier.Notify(ChannelMarket)
}

func (o *Orchestrator) handleForeign(f events.Foreign, now time.Time) {
	state := o.Foreign.Update(f, now)
	o.persister.EnqueueForeign(state)
	o.Anomaly.CheckForeignAcceleration(f.Symbol, state.NetValue, now)
	o.notifier.Notify(ChannelForeign)
}

func (o *Orchestrator) handleIndex(idx events.Index, now time.Time) {
	data := o.Indices.Update(idx, now)
	o.persister.EnqueueIndex(data)

	if idx.IndexID == "VN30" {
		o.Derivatives.UpdateSpot(idx.IndexValue)
	}

	o.notifier.Notify(ChannelIndex)
}

// ResetDaily clears the session tallies, foreign, index and derivatives
// state and the last-trade price cache; cached quotes are kept. The alert
// ring, its dedup map and the anomaly detector's history are not cleared.
// Called by the scheduler at the configured daily reset time.
func (o *Orchestrator) ResetDaily() {
	o.Quotes.Reset()
	o.Sessions.Reset()
	o.Foreign.Reset()
	o.Indices.Reset()
	o.Derivatives.Reset()
	log.Println("orchestrator: daily reset complete")
}

// MarketSnapshot builds the typed payload broadcast on the market channel.
func (o *Orchestrator) MarketSnapshot() events.MarketSnapshot {
	derivatives := o.Derivatives.Snapshot()
	return events.MarketSnapshot{
		Quotes:         o.Sessions.Snapshot(),
		Prices:         o.Quotes.Snapshot(),
		Indices:        o.Indices.Snapshot(),
		ForeignSummary: o.Foreign.Summary(5),
		Derivatives:    &derivatives,
	}
}

// The methods below satisfy publish.Snapshotter (each returns any rather
// than its concrete type so the publisher stays decoupled from the core
// package's exact structs).

func (o *Orchestrator) Snapshot() any        { return o.MarketSnapshot() }
func (o *Orchestrator) ForeignSnapshot() any { return o.Foreign.Summary(5) }
func (o *Orchestrator) IndexSnapshot() any   { return o.Indices.Snapshot() }
func (o *Orchestrator) AlertSnapshot() any   { return o.Alerts.Recent(50, "", "") }
