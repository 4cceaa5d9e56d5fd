package core

import (
	"testing"
	"time"

	"vnmarket-stream/events"
)

func TestAlertServiceDedupWithinWindow(t *testing.T) {
	s := NewAlertService()
	now := time.Now()

	_, fired := s.Fire(events.Alert{AlertType: events.AlertVolumeSpike, Symbol: "VNM", CreatedAt: now})
	if !fired {
		t.Fatal("expected the first alert to fire")
	}

	_, fired = s.Fire(events.Alert{AlertType: events.AlertVolumeSpike, Symbol: "VNM", CreatedAt: now.Add(30 * time.Second)})
	if fired {
		t.Error("expected a repeat alert within the dedup window to be suppressed")
	}

	_, fired = s.Fire(events.Alert{AlertType: events.AlertVolumeSpike, Symbol: "VNM", CreatedAt: now.Add(61 * time.Second)})
	if !fired {
		t.Error("expected an alert past the dedup window to fire again")
	}
}

func TestAlertServiceDedupIsPerSymbolAndType(t *testing.T) {
	s := NewAlertService()
	now := time.Now()

	s.Fire(events.Alert{AlertType: events.AlertVolumeSpike, Symbol: "VNM", CreatedAt: now})
	_, fired := s.Fire(events.Alert{AlertType: events.AlertVolumeSpike, Symbol: "HPG", CreatedAt: now})
	if !fired {
		t.Error("expected a different symbol to fire independently")
	}

	_, fired = s.Fire(events.Alert{AlertType: events.AlertPriceBreakout, Symbol: "VNM", CreatedAt: now})
	if !fired {
		t.Error("expected a different alert type to fire independently")
	}
}

func TestAlertServiceOnFireHookRunsOnlyWhenRecorded(t *testing.T) {
	s := NewAlertService()
	now := time.Now()
	calls := 0
	s.OnFire(func(events.Alert) { calls++ })

	s.Fire(events.Alert{AlertType: events.AlertVolumeSpike, Symbol: "VNM", CreatedAt: now})
	s.Fire(events.Alert{AlertType: events.AlertVolumeSpike, Symbol: "VNM", CreatedAt: now.Add(time.Second)})

	if calls != 1 {
		t.Errorf("expected the hook to run once for the recorded alert, got %d calls", calls)
	}
}

func TestAlertServiceRecentIsNewestFirstAndFiltered(t *testing.T) {
	s := NewAlertService()
	now := time.Now()

	s.Fire(events.Alert{AlertType: events.AlertVolumeSpike, Severity: events.SeverityWarning, Symbol: "VNM", CreatedAt: now})
	s.Fire(events.Alert{AlertType: events.AlertPriceBreakout, Severity: events.SeverityCritical, Symbol: "HPG", CreatedAt: now.Add(time.Second)})
	s.Fire(events.Alert{AlertType: events.AlertVolumeSpike, Severity: events.SeverityCritical, Symbol: "VNM", CreatedAt: now.Add(61 * time.Second)})

	all := s.Recent(10, "", "")
	if len(all) != 3 || all[0].Symbol != "VNM" || all[0].Severity != events.SeverityCritical {
		t.Fatalf("expected newest-first order, got %+v", all)
	}

	byType := s.Recent(10, events.AlertVolumeSpike, "")
	if len(byType) != 2 {
		t.Fatalf("expected 2 volume spike alerts, got %+v", byType)
	}
	for _, a := range byType {
		if a.AlertType != events.AlertVolumeSpike {
			t.Errorf("expected only volume spike alerts, got %v", a.AlertType)
		}
	}

	bySeverity := s.Recent(10, "", events.SeverityCritical)
	if len(bySeverity) != 2 {
		t.Fatalf("expected 2 critical alerts, got %+v", bySeverity)
	}

	byBoth := s.Recent(10, events.AlertVolumeSpike, events.SeverityCritical)
	if len(byBoth) != 1 || byBoth[0].Symbol != "VNM" {
		t.Fatalf("expected exactly the critical volume spike alert, got %+v", byBoth)
	}
}

func TestAlertServiceRecentRingCap(t *testing.T) {
	s := NewAlertService()
	now := time.Now()
	for i := 0; i < alertRingCap+10; i++ {
		s.Fire(events.Alert{AlertType: events.AlertVolumeSpike, Symbol: "SYM", CreatedAt: now.Add(time.Duration(i) * time.Minute)})
	}
	recent := s.Recent(alertRingCap+10, "", "")
	if len(recent) != alertRingCap {
		t.Errorf("expected ring capped at %d, got %d", alertRingCap, len(recent))
	}
}
