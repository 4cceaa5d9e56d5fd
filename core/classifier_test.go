package core

import (
	"testing"
	"time"

	"vnmarket-stream/events"
)

func TestClassifyTickRule(t *testing.T) {
	quotes := NewQuoteCache()
	quotes.UpdateQuote(events.Quote{Symbol: "VNM", BidPrice1: 80.0, AskPrice1: 80.5})
	c := NewClassifier(quotes)
	now := time.Now()

	tests := []struct {
		name  string
		price float64
		want  events.TradeType
	}{
		{"at ask is active buy", 80.5, events.MuaChuDong},
		{"above ask is active buy", 81.0, events.MuaChuDong},
		{"at bid is active sell", 80.0, events.BanChuDong},
		{"below bid is active sell", 79.5, events.BanChuDong},
		{"between bid and ask is neutral", 80.2, events.Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := events.Trade{Symbol: "VNM", LastPrice: tt.price, LastVol: 100}
			ct := c.Classify(trade, now)
			if ct.TradeType != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.price, ct.TradeType, tt.want)
			}
		})
	}
}

func TestClassifyWithoutQuoteIsNeutral(t *testing.T) {
	c := NewClassifier(NewQuoteCache())
	ct := c.Classify(events.Trade{Symbol: "NOQUOTE", LastPrice: 100}, time.Now())
	if ct.TradeType != events.Neutral {
		t.Errorf("expected neutral without a quote, got %v", ct.TradeType)
	}
}

func TestClassifyAuctionSessionIsAlwaysNeutral(t *testing.T) {
	quotes := NewQuoteCache()
	quotes.UpdateQuote(events.Quote{Symbol: "VNM", BidPrice1: 80.0, AskPrice1: 80.5})
	c := NewClassifier(quotes)
	now := time.Now()

	for _, session := range []events.TradingSession{events.SessionATO, events.SessionATC} {
		t.Run(string(session), func(t *testing.T) {
			trade := events.Trade{Symbol: "VNM", LastPrice: 81.0, LastVol: 100, TradingSession: session}
			ct := c.Classify(trade, now)
			if ct.TradeType != events.Neutral {
				t.Errorf("expected an auction trade through the ask to still classify neutral, got %v", ct.TradeType)
			}
		})
	}
}

func TestClassifyAppliesThousandVNDScaleFactor(t *testing.T) {
	c := NewClassifier(NewQuoteCache())
	ct := c.Classify(events.Trade{Symbol: "VNM", LastPrice: 80.5, LastVol: 100}, time.Now())
	want := 80.5 * 100 * 1000
	if ct.Value != want {
		t.Errorf("Value = %v, want %v", ct.Value, want)
	}
}
