package core

import (
	"testing"
	"time"

	"vnmarket-stream/events"
)

func TestSessionAggregatorAccumulatesByTypeAndPhase(t *testing.T) {
	agg := NewSessionAggregator()
	now := time.Now()

	agg.Add(events.ClassifiedTrade{Symbol: "VNM", TradeType: events.MuaChuDong, Volume: 100, Value: 8000, Timestamp: now, TradingSession: events.SessionATO})
	agg.Add(events.ClassifiedTrade{Symbol: "VNM", TradeType: events.BanChuDong, Volume: 50, Value: 4000, Timestamp: now, TradingSession: events.SessionRaw})
	stats := agg.Add(events.ClassifiedTrade{Symbol: "VNM", TradeType: events.Neutral, Volume: 25, Value: 2000, Timestamp: now, TradingSession: events.SessionATC})

	if stats.MuaVol != 100 || stats.BanVol != 50 || stats.NeutralVol != 25 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.TotalVol != 175 {
		t.Errorf("expected total volume 175, got %d", stats.TotalVol)
	}
	if stats.ATO.MuaVol != 100 {
		t.Errorf("expected ATO bucket to carry the ATO trade, got %+v", stats.ATO)
	}
	if stats.Continuous.BanVol != 50 {
		t.Errorf("expected continuous bucket to carry the raw-session trade, got %+v", stats.Continuous)
	}
	if stats.ATC.NeutralVol != 25 {
		t.Errorf("expected ATC bucket to carry the ATC trade, got %+v", stats.ATC)
	}
}

func TestSessionAggregatorGetUnknownSymbol(t *testing.T) {
	agg := NewSessionAggregator()
	if _, ok := agg.Get("UNKNOWN"); ok {
		t.Error("expected ok=false for a symbol with no trades")
	}
}

func TestSessionAggregatorReset(t *testing.T) {
	agg := NewSessionAggregator()
	agg.Add(events.ClassifiedTrade{Symbol: "VNM", TradeType: events.MuaChuDong, Volume: 10})
	agg.Reset()
	if _, ok := agg.Get("VNM"); ok {
		t.Error("expected state to be cleared after Reset")
	}
}
