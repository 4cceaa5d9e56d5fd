package core

import (
	"time"

	"vnmarket-stream/events"
)

// Classifier tags each trade as active-buy (mua chu dong), active-sell (ban
// chu dong) or neutral by comparing the trade price against the best bid/ask
// in effect at the time of the trade.
type Classifier struct {
	quotes *QuoteCache
}

func NewClassifier(quotes *QuoteCache) *Classifier {
	return &Classifier{quotes: quotes}
}

// Classify applies the tick rule: a trade at or above the best ask is an
// active buy, a trade at or below the best bid is an active sell, anything
// strictly between is neutral. Without a quote yet for the symbol, every
// trade is neutral.
func (c *Classifier) Classify(t events.Trade, at time.Time) events.ClassifiedTrade {
	ct := events.ClassifiedTrade{
		Symbol:         t.Symbol,
		Price:          t.LastPrice,
		Volume:         t.LastVol,
		Value:          t.LastPrice * float64(t.LastVol) * 1000, // price is quoted in thousands of VND
		TradeType:      events.Neutral,
		Timestamp:      at,
		TradingSession: t.TradingSession,
	}

	q, ok := c.quotes.Quote(t.Symbol)
	if !ok {
		return ct
	}
	ct.BidPrice = q.BidPrice1
	ct.AskPrice = q.AskPrice1

	switch {
	case t.TradingSession == events.SessionATO || t.TradingSession == events.SessionATC:
		ct.TradeType = events.Neutral
	case q.AskPrice1 > 0 && t.LastPrice >= q.AskPrice1:
		ct.TradeType = events.MuaChuDong
	case q.BidPrice1 > 0 && t.LastPrice <= q.BidPrice1:
		ct.TradeType = events.BanChuDong
	}
	return ct
}
