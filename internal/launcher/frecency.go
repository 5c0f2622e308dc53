package launcher

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/keis/shell-search/internal/apps"
)

type AppUsageRecord struct {
	LaunchCount    int       `json:"launch_count"`
	LastLaunched   time.Time `json:"last_launched"`
	FirstLaunched  time.Time `json:"first_launched"`
	RecentLaunches []int64   `json:"recent_launches"`
}

func (r *AppUsageRecord) clone() *AppUsageRecord {
	c := *r
	c.RecentLaunches = append([]int64(nil), r.RecentLaunches...)
	return &c
}

// FrecencyTracker records launches per desktop ID and scores apps by a mix
// of launch count, recency and launch rate.
type FrecencyTracker struct {
	records          map[string]*AppUsageRecord
	mu               sync.RWMutex
	file             string
	maxRecentEntries int
	halfLife         time.Duration
	now              func() time.Time
}

func NewFrecencyTracker(dataDir string) (*FrecencyTracker, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tracker := &FrecencyTracker{
		records:          make(map[string]*AppUsageRecord),
		file:             filepath.Join(dataDir, "frecency.json"),
		maxRecentEntries: 10,
		halfLife:         7 * 24 * time.Hour,
		now:              time.Now,
	}

	if err := tracker.load(); err != nil {
		log.Printf("[FRECENCY] Failed to load frecency data: %v", err)
	}

	return tracker, nil
}

func (f *FrecencyTracker) RecordLaunch(appID string) {
	if appID == "" {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()

	record, exists := f.records[appID]
	if !exists {
		record = &AppUsageRecord{FirstLaunched: now}
		f.records[appID] = record
	}

	record.LaunchCount++
	record.LastLaunched = now
	record.RecentLaunches = append(record.RecentLaunches, now.Unix())
	if len(record.RecentLaunches) > f.maxRecentEntries {
		record.RecentLaunches = record.RecentLaunches[len(record.RecentLaunches)-f.maxRecentEntries:]
	}

	if err := f.save(); err != nil {
		log.Printf("[FRECENCY] Failed to save frecency data: %v", err)
	}

	log.Printf("[FRECENCY] Recorded launch of %s: count=%d", appID, record.LaunchCount)
}

// Score returns 0 for apps that were never launched.
func (f *FrecencyTracker) Score(appID string) float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	record, exists := f.records[appID]
	if !exists {
		return 0
	}
	return f.score(record, f.now())
}

func (f *FrecencyTracker) score(record *AppUsageRecord, now time.Time) float64 {
	frequency := float64(record.LaunchCount)
	recency := f.recencyScore(record.LastLaunched, now)
	trend := f.trendScore(record.RecentLaunches)
	return frequency*0.4 + recency*0.4 + trend*0.2
}

// recencyScore halves every halfLife, starting at 100.
func (f *FrecencyTracker) recencyScore(lastLaunched, now time.Time) float64 {
	elapsed := now.Sub(lastLaunched)
	if elapsed < 0 {
		elapsed = 0
	}
	halfLives := float64(elapsed) / float64(f.halfLife)
	return 100 * math.Pow(0.5, halfLives)
}

// trendScore maps the average launch rate to 0-100, saturating at ten
// launches per day.
func (f *FrecencyTracker) trendScore(recentLaunches []int64) float64 {
	if len(recentLaunches) < 2 {
		return 0
	}

	totalInterval := recentLaunches[len(recentLaunches)-1] - recentLaunches[0]
	if totalInterval <= 0 {
		return 100
	}

	averageInterval := float64(totalInterval) / float64(len(recentLaunches)-1)
	launchesPerDay := math.Min(24*3600/averageInterval, 10)
	return launchesPerDay / 10 * 100
}

func (f *FrecencyTracker) GetUsageStats(appID string) *AppUsageRecord {
	f.mu.RLock()
	defer f.mu.RUnlock()

	record, exists := f.records[appID]
	if !exists {
		return nil
	}
	return record.clone()
}

// SortApps orders list by descending score; never-launched apps keep their
// relative order after the launched ones.
func (f *FrecencyTracker) SortApps(list []*apps.App) {
	f.mu.RLock()
	now := f.now()
	scores := make(map[string]float64, len(f.records))
	for id, record := range f.records {
		scores[id] = f.score(record, now)
	}
	f.mu.RUnlock()

	sort.SliceStable(list, func(i, j int) bool {
		return scores[list[i].ID] > scores[list[j].ID]
	})
}

func (f *FrecencyTracker) RemoveApp(appID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.records, appID)
	if err := f.save(); err != nil {
		log.Printf("[FRECENCY] Failed to save frecency data: %v", err)
	}
}

func (f *FrecencyTracker) load() error {
	data, err := os.ReadFile(f.file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var records map[string]*AppUsageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to unmarshal frecency data: %w", err)
	}
	if records == nil {
		records = make(map[string]*AppUsageRecord)
	}

	f.mu.Lock()
	f.records = records
	f.mu.Unlock()

	log.Printf("[FRECENCY] Loaded %d app usage records", len(records))
	return nil
}

// save must be called with f.mu held.
func (f *FrecencyTracker) save() error {
	data, err := json.MarshalIndent(f.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal frecency data: %w", err)
	}

	tmp := f.file + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write frecency data: %w", err)
	}
	return os.Rename(tmp, f.file)
}
