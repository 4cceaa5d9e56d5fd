package database

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"vnmarket-stream/events"
	"vnmarket-stream/metrics"
)

const (
	maxQueueSize    = 10_000
	flushBatchSize  = 500
	flushInterval   = 1 * time.Second
)

// BatchWriter buffers classified ticks, foreign-flow, index and basis
// records in four bounded queues and flushes each to Postgres in bulk on a
// fixed interval using the COPY wire protocol (pgx's CopyFrom), rather than
// one INSERT per row.
type BatchWriter struct {
	db *DB

	mu       sync.Mutex
	ticks    []events.ClassifiedTrade
	foreign  []events.ForeignState
	indices  []events.IndexData
	basis    []events.BasisPoint

	stop chan struct{}
	done chan struct{}
}

func NewBatchWriter(db *DB) *BatchWriter {
	return &BatchWriter{
		db:   db,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// EnqueueTick implements core.Persister. When the queue is already at
// capacity the oldest entry is dropped to make room for the new one, since
// a stalled DB should never degrade the live pipeline upstream of it.
func (w *BatchWriter) EnqueueTick(t events.ClassifiedTrade) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.ticks) >= maxQueueSize {
		w.ticks = w.ticks[1:]
		log.Println("database: tick queue full, dropping oldest")
	}
	w.ticks = append(w.ticks, t)
}

func (w *BatchWriter) EnqueueForeign(f events.ForeignState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.foreign) >= maxQueueSize {
		w.foreign = w.foreign[1:]
		log.Println("database: foreign queue full, dropping oldest")
	}
	w.foreign = append(w.foreign, f)
}

func (w *BatchWriter) EnqueueIndex(i events.IndexData) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.indices) >= maxQueueSize {
		w.indices = w.indices[1:]
		log.Println("database: index queue full, dropping oldest")
	}
	w.indices = append(w.indices, i)
}

func (w *BatchWriter) EnqueueBasis(b events.BasisPoint) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.basis) >= maxQueueSize {
		w.basis = w.basis[1:]
		log.Println("database: basis queue full, dropping oldest")
	}
	w.basis = append(w.basis, b)
}

// Run flushes every queue on a fixed tick until Stop is called.
func (w *BatchWriter) Run() {
	defer close(w.done)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.flushAll()
		case <-w.stop:
			w.flushAll()
			return
		}
	}
}

// Stop signals Run to flush one last time and return.
func (w *BatchWriter) Stop() {
	close(w.stop)
	<-w.done
}

func (w *BatchWriter) flushAll() {
	metrics.DBPoolActiveConnections.Set(float64(w.db.PoolStats()))

	w.flushTicks()
	w.flushForeign()
	w.flushIndices()
	w.flushBasis()
}

func (w *BatchWriter) drainTicks() []events.ClassifiedTrade {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := flushBatchSize
	if n > len(w.ticks) {
		n = len(w.ticks)
	}
	batch := w.ticks[:n]
	w.ticks = w.ticks[n:]
	return batch
}

func (w *BatchWriter) flushTicks() {
	batch := w.drainTicks()
	if len(batch) == 0 {
		return
	}
	start := time.Now()
	rows := make([][]any, len(batch))
	for i, t := range batch {
		rows[i] = []any{t.Symbol, t.Timestamp, t.Price, t.Volume, string(t.TradeType), t.BidPrice, t.AskPrice}
	}
	ctx, cancel := context.WithTimeout(context.Background(), copyTimeout)
	defer cancel()
	_, err := w.db.Pool.CopyFrom(ctx, pgx.Identifier{"tick_data"},
		[]string{"symbol", "timestamp", "price", "volume", "side", "bid", "ask"},
		pgx.CopyFromRows(rows))
	metrics.DBWriteDuration.WithLabelValues("tick_data").Observe(time.Since(start).Seconds())
	if err != nil {
		log.Printf("database: tick_data flush failed: %v", err)
	}
}

func (w *BatchWriter) drainForeign() []events.ForeignState {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := flushBatchSize
	if n > len(w.foreign) {
		n = len(w.foreign)
	}
	batch := w.foreign[:n]
	w.foreign = w.foreign[n:]
	return batch
}

func (w *BatchWriter) flushForeign() {
	batch := w.drainForeign()
	if len(batch) == 0 {
		return
	}
	start := time.Now()
	rows := make([][]any, len(batch))
	for i, f := range batch {
		rows[i] = []any{f.Symbol, f.LastUpdated, f.BuyVolume, f.SellVolume, f.NetVolume, f.BuyValue, f.SellValue}
	}
	ctx, cancel := context.WithTimeout(context.Background(), copyTimeout)
	defer cancel()
	_, err := w.db.Pool.CopyFrom(ctx, pgx.Identifier{"foreign_flow"},
		[]string{"symbol", "timestamp", "buy_vol", "sell_vol", "net_vol", "buy_value", "sell_value"},
		pgx.CopyFromRows(rows))
	metrics.DBWriteDuration.WithLabelValues("foreign_flow").Observe(time.Since(start).Seconds())
	if err != nil {
		log.Printf("database: foreign_flow flush failed: %v", err)
	}
}

func (w *BatchWriter) drainIndices() []events.IndexData {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := flushBatchSize
	if n > len(w.indices) {
		n = len(w.indices)
	}
	batch := w.indices[:n]
	w.indices = w.indices[n:]
	return batch
}

func (w *BatchWriter) flushIndices() {
	batch := w.drainIndices()
	if len(batch) == 0 {
		return
	}
	start := time.Now()
	rows := make([][]any, len(batch))
	for i, idx := range batch {
		rows[i] = []any{idx.IndexID, idx.LastUpdated, idx.Value, idx.RatioChange, idx.TotalVolume}
	}
	ctx, cancel := context.WithTimeout(context.Background(), copyTimeout)
	defer cancel()
	_, err := w.db.Pool.CopyFrom(ctx, pgx.Identifier{"index_snapshots"},
		[]string{"index_name", "timestamp", "value", "change_pct", "volume"},
		pgx.CopyFromRows(rows))
	metrics.DBWriteDuration.WithLabelValues("index_snapshots").Observe(time.Since(start).Seconds())
	if err != nil {
		log.Printf("database: index_snapshots flush failed: %v", err)
	}
}

func (w *BatchWriter) drainBasis() []events.BasisPoint {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := flushBatchSize
	if n > len(w.basis) {
		n = len(w.basis)
	}
	batch := w.basis[:n]
	w.basis = w.basis[n:]
	return batch
}

func (w *BatchWriter) flushBasis() {
	batch := w.drainBasis()
	if len(batch) == 0 {
		return
	}
	start := time.Now()
	rows := make([][]any, len(batch))
	for i, b := range batch {
		// Open interest is not yet available from the upstream stream.
		rows[i] = []any{b.FuturesSymbol, b.Timestamp, b.FuturesPrice, b.Basis, int64(0)}
	}
	ctx, cancel := context.WithTimeout(context.Background(), copyTimeout)
	defer cancel()
	_, err := w.db.Pool.CopyFrom(ctx, pgx.Identifier{"derivatives"},
		[]string{"contract", "timestamp", "price", "basis", "open_interest"},
		pgx.CopyFromRows(rows))
	metrics.DBWriteDuration.WithLabelValues("derivatives").Observe(time.Since(start).Seconds())
	if err != nil {
		log.Printf("database: derivatives flush failed: %v", err)
	}
}

const copyTimeout = 10 * time.Second
