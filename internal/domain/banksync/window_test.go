package banksync

import (
	"testing"
	"time"
)

func TestSyncWindow_FirstSync(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	from, to := syncWindow(nil, false, now)

	if !to.Equal(now) {
		t.Errorf("Expected window to end at now, got %v", to)
	}
	if want := now.AddDate(0, 0, -90); !from.Equal(want) {
		t.Errorf("Expected first sync to start 90 days back (%v), got %v", want, from)
	}
}

func TestSyncWindow_Incremental(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	lastSync := time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC)

	from, to := syncWindow(&lastSync, false, now)

	if !to.Equal(now) {
		t.Errorf("Expected window to end at now, got %v", to)
	}
	if want := lastSync.AddDate(0, 0, -7); !from.Equal(want) {
		t.Errorf("Expected incremental sync to start 7 days before watermark (%v), got %v", want, from)
	}
}

func TestSyncWindow_ForceFull(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	lastSync := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)

	from, to := syncWindow(&lastSync, true, now)

	if !to.Equal(now) {
		t.Errorf("Expected window to end at now, got %v", to)
	}
	if want := now.AddDate(0, 0, -365); !from.Equal(want) {
		t.Errorf("Expected forced full sync to start 365 days back (%v), got %v", want, from)
	}
}

func TestSyncWindow_ForceFullIgnoresWatermark(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-time.Hour)

	withWatermark, _ := syncWindow(&recent, true, now)
	withoutWatermark, _ := syncWindow(nil, true, now)

	if !withWatermark.Equal(withoutWatermark) {
		t.Errorf("Force full should ignore watermark: got %v vs %v", withWatermark, withoutWatermark)
	}
}
