package core

import (
	"testing"
	"time"
)

func TestDerivativesTrackerBasisComputedOnceBothSidesKnown(t *testing.T) {
	d := NewDerivativesTracker()
	now := time.Now()

	data := d.UpdateContract("VN30F2508", 1250, 1000, 5, 0.4, now)
	if data.CurrentBasis != nil {
		t.Fatalf("expected no basis before spot is known, got %+v", data.CurrentBasis)
	}

	d.UpdateSpot(1245)
	data = d.UpdateContract("VN30F2508", 1252, 1100, 7, 0.56, now.Add(time.Second))
	if data.CurrentBasis == nil {
		t.Fatal("expected a basis once both futures price and spot are known")
	}
	if data.CurrentBasis.Basis != 7 {
		t.Errorf("expected basis 7, got %v", data.CurrentBasis.Basis)
	}
	if !data.CurrentBasis.IsPremium {
		t.Error("expected a positive basis to be a premium")
	}
}

func TestDerivativesTrackerHighestVolumeContractIsActive(t *testing.T) {
	d := NewDerivativesTracker()
	now := time.Now()
	d.UpdateSpot(1245)

	d.UpdateContract("VN30F2508", 1250, 1000, 0, 0, now)
	data := d.UpdateContract("VN30F2509", 1260, 500, 0, 0, now.Add(time.Second))

	if data.FuturesSymbol != "VN30F2508" {
		t.Errorf("expected the higher-volume contract to remain active despite a more recent update elsewhere, got %s", data.FuturesSymbol)
	}
}

func TestDerivativesTrackerVolumeTieFavorsJustUpdatedContract(t *testing.T) {
	d := NewDerivativesTracker()
	now := time.Now()
	d.UpdateSpot(1245)

	d.UpdateContract("VN30F2508", 1250, 1000, 0, 0, now)
	data := d.UpdateContract("VN30F2509", 1260, 1000, 0, 0, now.Add(time.Second))

	if data.FuturesSymbol != "VN30F2509" {
		t.Errorf("expected a volume tie to favor the just-updated contract, got %s", data.FuturesSymbol)
	}
}

func TestDerivativesTrackerBasisHistoryCapped(t *testing.T) {
	d := NewDerivativesTracker()
	d.UpdateSpot(1000)
	now := time.Now()
	for i := 0; i < basisHistoryMaxLen+5; i++ {
		d.UpdateContract("VN30F2508", 1001, 10, 0, 0, now.Add(time.Duration(i)*time.Second))
	}
	if got := len(d.BasisHistory()); got != basisHistoryMaxLen {
		t.Errorf("expected basis history capped at %d, got %d", basisHistoryMaxLen, got)
	}
}

func TestDerivativesTrackerReset(t *testing.T) {
	d := NewDerivativesTracker()
	d.UpdateSpot(1000)
	d.UpdateContract("VN30F2508", 1001, 10, 0, 0, time.Now())
	d.Reset()
	if got := d.Snapshot(); got.FuturesSymbol != "" {
		t.Errorf("expected empty snapshot after Reset, got %+v", got)
	}
}
