package core

import (
	"sync"

	"vnmarket-stream/events"
)

// QuoteCache holds the latest Quote and last-trade price per symbol. Updates
// come from the orchestrator's single goroutine and Reset from the daily
// reset scheduler; the RWMutex lets those and the HTTP/history API (running
// on other goroutines) see a consistent state.
type QuoteCache struct {
	mu     sync.RWMutex
	quotes map[string]events.Quote
	prices map[string]events.PriceRef
}

func NewQuoteCache() *QuoteCache {
	return &QuoteCache{
		quotes: make(map[string]events.Quote),
		prices: make(map[string]events.PriceRef),
	}
}

func (c *QuoteCache) UpdateQuote(q events.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[q.Symbol] = q
}

func (c *QuoteCache) UpdateTrade(t events.Trade) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[t.Symbol] = events.PriceRef{
		LastPrice:   t.LastPrice,
		Change:      t.Change,
		RatioChange: t.RatioChange,
	}
}

func (c *QuoteCache) Quote(symbol string) (events.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.quotes[symbol]
	return q, ok
}

func (c *QuoteCache) Price(symbol string) (events.PriceRef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.prices[symbol]
	return p, ok
}

// Snapshot returns a copy of all cached prices, safe to hand to a publisher.
func (c *QuoteCache) Snapshot() map[string]events.PriceRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]events.PriceRef, len(c.prices))
	for k, v := range c.prices {
		out[k] = v
	}
	return out
}

// Reset clears the last-trade prices, used by the daily reset scheduler.
// Cached quotes are kept.
func (c *QuoteCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices = make(map[string]events.PriceRef)
}
