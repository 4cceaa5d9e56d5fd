package core

import (
	"testing"
	"time"

	"vnmarket-stream/events"
)

func TestForeignTrackerAccumulatesDeltas(t *testing.T) {
	f := NewForeignTracker()
	now := time.Now()

	s1 := f.Update(events.Foreign{Symbol: "VNM", FBuyVol: 1000, FSellVol: 200, FBuyVal: 80_000_000, FSellVal: 16_000_000}, now)
	if s1.BuyVolume != 1000 || s1.SellVolume != 200 {
		t.Fatalf("expected first update to carry the full cumulative as delta, got %+v", s1)
	}

	s2 := f.Update(events.Foreign{Symbol: "VNM", FBuyVol: 1500, FSellVol: 300, FBuyVal: 120_000_000, FSellVal: 24_000_000}, now.Add(time.Minute))
	if s2.BuyVolume != 1500 || s2.SellVolume != 300 {
		t.Fatalf("expected cumulative buy/sell volume to accumulate deltas, got %+v", s2)
	}
	if s2.NetValue != 96_000_000 {
		t.Errorf("expected net value 96000000, got %v", s2.NetValue)
	}
}

func TestForeignTrackerClampsRegressingCounter(t *testing.T) {
	f := NewForeignTracker()
	now := time.Now()

	f.Update(events.Foreign{Symbol: "VNM", FBuyVol: 1000, FSellVol: 1000}, now)
	s := f.Update(events.Foreign{Symbol: "VNM", FBuyVol: 100, FSellVol: 100}, now.Add(time.Minute))

	if s.BuyVolume != 100 || s.SellVolume != 100 {
		t.Errorf("expected the state to report the new cumulative values, got %+v", s)
	}
	if s.BuySpeedPerMin != 200 || s.SellSpeedPerMin != 200 {
		t.Errorf("expected a regressing cumulative counter to add a zero delta to the speed window, got %+v", s)
	}
}

func TestForeignTrackerSummaryRanksByNetValue(t *testing.T) {
	f := NewForeignTracker()
	now := time.Now()

	f.Update(events.Foreign{Symbol: "A", FBuyVal: 100, FSellVal: 10}, now)
	f.Update(events.Foreign{Symbol: "B", FBuyVal: 10, FSellVal: 100}, now)
	f.Update(events.Foreign{Symbol: "C", FBuyVal: 50, FSellVal: 50}, now)

	summary := f.Summary(2)
	if len(summary.TopBuy) != 2 || summary.TopBuy[0].Symbol != "A" {
		t.Fatalf("expected A to rank first by net value, got %+v", summary.TopBuy)
	}
	if len(summary.TopSell) != 2 || summary.TopSell[0].Symbol != "B" {
		t.Fatalf("expected B to rank first among net sellers, got %+v", summary.TopSell)
	}
}

func TestForeignTrackerReconcileRebasesWithoutADelta(t *testing.T) {
	f := NewForeignTracker()
	now := time.Now()

	f.Update(events.Foreign{Symbol: "VNM", FBuyVol: 5000, FSellVol: 3000}, now)

	// A reconnect gap: the broker's own REST snapshot reports a fresh
	// cumulative pair. Reconcile must adopt it as the new baseline without
	// producing a state update or a negative/clamped delta.
	f.Reconcile(events.Foreign{Symbol: "VNM", FBuyVol: 100, FSellVol: 50})

	s, ok := f.Get("VNM")
	if !ok {
		t.Fatal("expected symbol state to still exist after Reconcile")
	}
	if s.BuyVolume != 5000 || s.SellVolume != 3000 {
		t.Errorf("expected Reconcile not to change the last published state, got %+v", s)
	}

	next := f.Update(events.Foreign{Symbol: "VNM", FBuyVol: 150, FSellVol: 80}, now.Add(time.Minute))
	if next.BuyVolume != 150 || next.SellVolume != 80 {
		t.Errorf("expected the state to report the new cumulative values, got %+v", next)
	}
	if next.BuySpeedPerMin != 1010 || next.SellSpeedPerMin != 606 {
		t.Errorf("expected the next delta to be computed against the reconciled baseline (50, 30), got %+v", next)
	}
}

func TestForeignTrackerReset(t *testing.T) {
	f := NewForeignTracker()
	f.Update(events.Foreign{Symbol: "VNM", FBuyVol: 100}, time.Now())
	f.Reset()
	if _, ok := f.Get("VNM"); ok {
		t.Error("expected state to be cleared after Reset")
	}
}
