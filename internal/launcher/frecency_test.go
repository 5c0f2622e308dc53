package launcher

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/keis/shell-search/internal/apps"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker(t *testing.T, dir string) (*FrecencyTracker, *fakeClock) {
	t.Helper()
	tracker, err := NewFrecencyTracker(dir)
	if err != nil {
		t.Fatalf("Failed to create frecency tracker: %v", err)
	}
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	tracker.now = clock.now
	return tracker, clock
}

func TestNewFrecencyTracker(t *testing.T) {
	tempDir := t.TempDir()
	tracker, err := NewFrecencyTracker(tempDir)
	if err != nil {
		t.Fatalf("Failed to create frecency tracker: %v", err)
	}

	if tracker.file != filepath.Join(tempDir, "frecency.json") {
		t.Errorf("Expected file path %s, got %s", filepath.Join(tempDir, "frecency.json"), tracker.file)
	}
}

func TestFrecencyTracker_RecordLaunch(t *testing.T) {
	tracker, _ := newTestTracker(t, t.TempDir())

	tracker.RecordLaunch("firefox.desktop")
	tracker.RecordLaunch("firefox.desktop")
	tracker.RecordLaunch("chromium.desktop")
	tracker.RecordLaunch("")

	stats := tracker.GetUsageStats("firefox.desktop")
	if stats == nil {
		t.Fatal("Expected non-nil stats for firefox")
	}
	if stats.LaunchCount != 2 {
		t.Errorf("Expected launch count 2, got %d", stats.LaunchCount)
	}

	if s := tracker.GetUsageStats("chromium.desktop"); s == nil || s.LaunchCount != 1 {
		t.Errorf("Expected launch count 1 for chromium, got %+v", s)
	}
	if tracker.GetUsageStats("") != nil {
		t.Error("Empty ID should not be recorded")
	}
}

func TestFrecencyTracker_RecentLaunchesTrimmed(t *testing.T) {
	tracker, clock := newTestTracker(t, t.TempDir())

	for i := 0; i < 15; i++ {
		tracker.RecordLaunch("app.desktop")
		clock.advance(time.Minute)
	}

	stats := tracker.GetUsageStats("app.desktop")
	if len(stats.RecentLaunches) != 10 {
		t.Errorf("Expected 10 recent launches, got %d", len(stats.RecentLaunches))
	}
	if stats.LaunchCount != 15 {
		t.Errorf("Expected launch count 15, got %d", stats.LaunchCount)
	}
}

func TestFrecencyTracker_Score(t *testing.T) {
	tracker, clock := newTestTracker(t, t.TempDir())

	if score := tracker.Score("unknown.desktop"); score != 0 {
		t.Errorf("Expected 0 for unknown app, got %f", score)
	}

	tracker.RecordLaunch("app.desktop")
	// One launch just now: 1*0.4 + 100*0.4 + 0.
	if score := tracker.Score("app.desktop"); math.Abs(score-40.4) > 1e-9 {
		t.Errorf("Expected 40.4, got %f", score)
	}

	clock.advance(7 * 24 * time.Hour)
	if score := tracker.Score("app.desktop"); math.Abs(score-20.4) > 1e-9 {
		t.Errorf("Expected 20.4 after one half-life, got %f", score)
	}
}

func TestFrecencyTracker_TrendScore(t *testing.T) {
	tracker, _ := newTestTracker(t, t.TempDir())

	if got := tracker.trendScore(nil); got != 0 {
		t.Errorf("Expected 0 for no launches, got %f", got)
	}
	if got := tracker.trendScore([]int64{100, 100}); got != 100 {
		t.Errorf("Expected 100 for zero interval, got %f", got)
	}
	day := int64(24 * 3600)
	if got := tracker.trendScore([]int64{0, day, 2 * day}); math.Abs(got-10) > 1e-9 {
		t.Errorf("Expected 10 for one launch a day, got %f", got)
	}
}

func TestFrecencyTracker_SortApps(t *testing.T) {
	tracker, _ := newTestTracker(t, t.TempDir())

	list := []*apps.App{
		{ID: "a.desktop"},
		{ID: "b.desktop"},
		{ID: "c.desktop"},
		{ID: "d.desktop"},
	}
	tracker.RecordLaunch("c.desktop")
	tracker.RecordLaunch("c.desktop")
	tracker.RecordLaunch("b.desktop")

	tracker.SortApps(list)

	want := []string{"c.desktop", "b.desktop", "a.desktop", "d.desktop"}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("Position %d: expected %s, got %s", i, id, list[i].ID)
		}
	}
}

func TestFrecencyTracker_Persistence(t *testing.T) {
	tempDir := t.TempDir()
	tracker, _ := newTestTracker(t, tempDir)
	tracker.RecordLaunch("app.desktop")
	tracker.RecordLaunch("app.desktop")

	reloaded, err := NewFrecencyTracker(tempDir)
	if err != nil {
		t.Fatalf("Failed to reload tracker: %v", err)
	}
	stats := reloaded.GetUsageStats("app.desktop")
	if stats == nil || stats.LaunchCount != 2 {
		t.Fatalf("Expected persisted launch count 2, got %+v", stats)
	}

	reloaded.RemoveApp("app.desktop")
	again, err := NewFrecencyTracker(tempDir)
	if err != nil {
		t.Fatalf("Failed to reload tracker: %v", err)
	}
	if again.GetUsageStats("app.desktop") != nil {
		t.Error("Removed app should not be persisted")
	}
}

func TestFrecencyTracker_StatsAreCopies(t *testing.T) {
	tracker, _ := newTestTracker(t, t.TempDir())
	tracker.RecordLaunch("app.desktop")

	stats := tracker.GetUsageStats("app.desktop")
	stats.LaunchCount = 99

	if tracker.GetUsageStats("app.desktop").LaunchCount != 1 {
		t.Error("GetUsageStats must return a copy")
	}
}
