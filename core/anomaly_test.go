package core

import (
	"testing"
	"time"

	"vnmarket-stream/events"
)

func TestAnomalyDetectorVolumeSpike(t *testing.T) {
	alerts := NewAlertService()
	d := NewAnomalyDetector(alerts)
	now := time.Now()

	// 10 baseline samples rising from 100 to 1000, one minute apart, then a spike.
	for i := 0; i < 10; i++ {
		d.CheckVolumeSpike("VNM", int64(100*(i+1)), now.Add(time.Duration(i)*time.Minute))
	}
	d.CheckVolumeSpike("VNM", 100*10+100_000, now.Add(10*time.Minute))

	recent := alerts.Recent(10, "", "")
	if len(recent) == 0 || recent[len(recent)-1].AlertType != events.AlertVolumeSpike {
		t.Fatalf("expected a volume spike alert to fire, got %+v", recent)
	}
}

func TestAnomalyDetectorVolumeSpikeNeedsMinSamples(t *testing.T) {
	alerts := NewAlertService()
	d := NewAnomalyDetector(alerts)
	now := time.Now()

	d.CheckVolumeSpike("VNM", 100, now)
	d.CheckVolumeSpike("VNM", 1_000_000, now.Add(time.Second))

	if len(alerts.Recent(10, "", "")) != 0 {
		t.Error("expected no alert before the minimum sample count is reached")
	}
}

func TestAnomalyDetectorPriceBreakout(t *testing.T) {
	alerts := NewAlertService()
	d := NewAnomalyDetector(alerts)
	now := time.Now()

	d.CheckPriceBreakout("VNM", 100, 100, 90, now)
	recent := alerts.Recent(1, "", "")
	if len(recent) != 1 || recent[0].AlertType != events.AlertPriceBreakout {
		t.Fatalf("expected a ceiling breakout alert, got %+v", recent)
	}
}

func TestAnomalyDetectorPriceBreakoutInsideBand(t *testing.T) {
	alerts := NewAlertService()
	d := NewAnomalyDetector(alerts)
	d.CheckPriceBreakout("VNM", 95, 100, 90, time.Now())
	if len(alerts.Recent(1, "", "")) != 0 {
		t.Error("expected no alert for a price strictly inside the ceiling/floor band")
	}
}

func TestAnomalyDetectorForeignAcceleration(t *testing.T) {
	alerts := NewAlertService()
	d := NewAnomalyDetector(alerts)
	now := time.Now()

	d.CheckForeignAcceleration("VNM", 2_000_000_000, now)
	d.CheckForeignAcceleration("VNM", 3_000_000_000, now.Add(5*time.Minute))

	recent := alerts.Recent(1, "", "")
	if len(recent) != 1 || recent[0].AlertType != events.AlertForeignAcceleration {
		t.Fatalf("expected a foreign acceleration alert for a 50%% jump, got %+v", recent)
	}
}

func TestAnomalyDetectorForeignAccelerationSkipsWithoutAFiveMinuteOldSample(t *testing.T) {
	alerts := NewAlertService()
	d := NewAnomalyDetector(alerts)
	now := time.Now()

	d.CheckForeignAcceleration("VNM", 2_000_000_000, now)
	d.CheckForeignAcceleration("VNM", 10_000_000_000, now.Add(time.Minute))

	if len(alerts.Recent(1, "", "")) != 0 {
		t.Error("expected no alert before any sample is at least 5 minutes old")
	}
}

func TestAnomalyDetectorForeignAccelerationBelowFloorIgnored(t *testing.T) {
	alerts := NewAlertService()
	d := NewAnomalyDetector(alerts)
	now := time.Now()

	d.CheckForeignAcceleration("VNM", 1_000, now)
	d.CheckForeignAcceleration("VNM", 100_000, now.Add(5*time.Minute))

	if len(alerts.Recent(1, "", "")) != 0 {
		t.Error("expected no alert when the past value is below the meaningful-ratio floor")
	}
}

func TestAnomalyDetectorBasisFlip(t *testing.T) {
	alerts := NewAlertService()
	d := NewAnomalyDetector(alerts)
	now := time.Now()

	d.CheckBasisFlip("VN30F2508", 5, now)
	if len(alerts.Recent(1, "", "")) != 0 {
		t.Fatal("expected no alert on the first observation (no prior sign to compare against)")
	}

	d.CheckBasisFlip("VN30F2508", -3, now.Add(time.Minute))
	recent := alerts.Recent(1, "", "")
	if len(recent) != 1 || recent[0].AlertType != events.AlertBasisDivergence {
		t.Fatalf("expected a basis flip alert when the sign reverses, got %+v", recent)
	}
}

func TestAnomalyDetectorBasisFlipZeroBasisIsDiscount(t *testing.T) {
	alerts := NewAlertService()
	d := NewAnomalyDetector(alerts)
	now := time.Now()

	d.CheckBasisFlip("VN30F2508", 5, now)
	d.CheckBasisFlip("VN30F2508", 0, now.Add(time.Minute))

	recent := alerts.Recent(1, "", "")
	if len(recent) != 1 || recent[0].AlertType != events.AlertBasisDivergence {
		t.Errorf("expected a move from premium to a zero basis (not a premium) to count as a flip, got %+v", recent)
	}
}
