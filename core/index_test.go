package core

import (
	"testing"
	"time"

	"vnmarket-stream/events"
)

func TestIndexTrackerUpdateAndIntraday(t *testing.T) {
	tr := NewIndexTracker()
	now := time.Now()

	tr.Update(events.Index{IndexID: "VN30", IndexValue: 1200, Advances: 20, Declines: 8}, now)
	d := tr.Update(events.Index{IndexID: "VN30", IndexValue: 1205, Advances: 22, Declines: 6}, now.Add(time.Second))

	if d.Value != 1205 {
		t.Errorf("expected latest value 1205, got %v", d.Value)
	}
	if len(d.Intraday) != 2 {
		t.Fatalf("expected 2 intraday points, got %d", len(d.Intraday))
	}
	if got := d.AdvanceRatio(); got != 22.0/28.0 {
		t.Errorf("expected advance ratio %v, got %v", 22.0/28.0, got)
	}
}

func TestIndexTrackerIntradayCapped(t *testing.T) {
	tr := NewIndexTracker()
	now := time.Now()
	for i := 0; i < indexIntradayMaxLen+10; i++ {
		tr.Update(events.Index{IndexID: "VNINDEX", IndexValue: float64(i)}, now.Add(time.Duration(i)*time.Second))
	}
	d, _ := tr.Get("VNINDEX")
	if len(d.Intraday) != indexIntradayMaxLen {
		t.Errorf("expected intraday history capped at %d, got %d", indexIntradayMaxLen, len(d.Intraday))
	}
	if d.Intraday[len(d.Intraday)-1].Value != float64(indexIntradayMaxLen+9) {
		t.Errorf("expected the most recent point to survive the cap, got %v", d.Intraday[len(d.Intraday)-1].Value)
	}
}

func TestIndexTrackerAdvanceRatioWithNoAdvancesOrDeclines(t *testing.T) {
	d := events.IndexData{}
	if got := d.AdvanceRatio(); got != 0 {
		t.Errorf("expected 0 ratio with no advances or declines, got %v", got)
	}
}
