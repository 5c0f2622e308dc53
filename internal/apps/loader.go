package apps

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/keis/shell-search/internal/config"
)

const cacheVersion = "2"

// maxParallelParse bounds the number of desktop files parsed at once.
const maxParallelParse = 10

type appsCache struct {
	Apps      []*App `json:"apps"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Loader enumerates desktop applications and caches them on disk.
type Loader struct {
	dirs      []string
	cacheDir  string
	cacheFile string
	maxAge    time.Duration
	mu        sync.RWMutex
	apps      []*App
	byID      map[string]*App
}

// NewLoader creates a loader for the directories implied by cfg and the XDG
// environment.
func NewLoader(cfg *config.Config) *Loader {
	var cacheFile string
	if cfg.Apps.CacheMaxAgeHours > 0 && cfg.Apps.CacheFile != "" {
		cacheFile = filepath.Join(cfg.Apps.CacheDir, cfg.Apps.CacheFile)
	}
	return &Loader{
		dirs:      ApplicationDirs(cfg.Apps.Dirs),
		cacheDir:  cfg.Apps.CacheDir,
		cacheFile: cacheFile,
		maxAge:    time.Duration(cfg.Apps.CacheMaxAgeHours) * time.Hour,
		byID:      make(map[string]*App),
	}
}

// NewLoaderForDirs creates an uncached loader over an explicit directory list.
func NewLoaderForDirs(dirs []string) *Loader {
	return &Loader{
		dirs: dirs,
		byID: make(map[string]*App),
	}
}

// ApplicationDirs returns the application directories in priority order:
// $XDG_DATA_HOME, the extra dirs, then each of $XDG_DATA_DIRS.
func ApplicationDirs(extra []string) []string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}

	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		if dir == "" || seen[dir] {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	if dataHome != "" {
		add(filepath.Join(dataHome, "applications"))
	}
	for _, dir := range extra {
		add(dir)
	}
	for _, dir := range strings.Split(dataDirs, ":") {
		if dir != "" {
			add(filepath.Join(dir, "applications"))
		}
	}
	return dirs
}

// Dirs returns the scanned directories in priority order.
func (l *Loader) Dirs() []string {
	return append([]string{}, l.dirs...)
}

// Load returns all applications sorted by display name. Entries whose file
// did not change since the previous load are returned as the same pointer.
func (l *Loader) Load(forceReload bool) ([]*App, error) {
	loadStart := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	log.Printf("[APPS-LOADER] Load started (forceReload=%v)", forceReload)

	if !forceReload && l.loadFromCache() {
		log.Printf("[APPS-LOADER] Load completed from cache in %v", time.Since(loadStart))
		return l.snapshot(), nil
	}

	if err := l.loadFromSystem(); err != nil {
		return nil, fmt.Errorf("failed to load apps from system: %w", err)
	}

	if l.cacheFile != "" {
		if err := l.saveToCache(); err != nil {
			log.Printf("[APPS-LOADER] Warning: failed to save cache: %v", err)
		}
	}

	log.Printf("[APPS-LOADER] Load completed from system in %v", time.Since(loadStart))
	return l.snapshot(), nil
}

// Apps returns the last loaded applications.
func (l *Loader) Apps() []*App {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot()
}

// Lookup finds a loaded application by desktop ID.
func (l *Loader) Lookup(id string) (*App, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	app, ok := l.byID[id]
	return app, ok
}

func (l *Loader) snapshot() []*App {
	apps := make([]*App, len(l.apps))
	copy(apps, l.apps)
	return apps
}

// loadFromCache loads apps from the cache file
func (l *Loader) loadFromCache() bool {
	if l.cacheFile == "" {
		return false
	}

	info, err := os.Stat(l.cacheFile)
	if err != nil {
		log.Printf("[APPS-CACHE] Cache miss: %v", err)
		return false
	}

	// A directory touched after the cache was written invalidates it.
	for _, dir := range l.dirs {
		if dirInfo, err := os.Stat(dir); err == nil && dirInfo.ModTime().After(info.ModTime()) {
			log.Printf("[APPS-CACHE] Cache miss: %s changed", dir)
			return false
		}
	}

	data, err := os.ReadFile(l.cacheFile)
	if err != nil {
		log.Printf("[APPS-CACHE] Cache miss: %v", err)
		return false
	}

	var cache appsCache
	if err := json.Unmarshal(data, &cache); err != nil {
		log.Printf("[APPS-CACHE] Cache miss: failed to unmarshal cache file: %v", err)
		return false
	}
	if cache.Version != cacheVersion {
		log.Printf("[APPS-CACHE] Cache miss: version %q, want %q", cache.Version, cacheVersion)
		return false
	}

	cacheTime, err := time.Parse(time.RFC3339, cache.Timestamp)
	if err != nil {
		log.Printf("[APPS-CACHE] Cache miss: bad timestamp %q", cache.Timestamp)
		return false
	}
	age := time.Since(cacheTime)
	if age >= l.maxAge {
		log.Printf("[APPS-CACHE] Cache miss: cache expired (age: %v, max: %v)", age, l.maxAge)
		return false
	}

	// Files edited in place leave their directory's mtime alone.
	for _, app := range cache.Apps {
		fileInfo, err := os.Stat(app.File)
		if err != nil || !fileInfo.ModTime().Equal(app.ModTime) {
			log.Printf("[APPS-CACHE] Cache miss: %s changed", app.File)
			return false
		}
	}

	l.replace(cache.Apps)
	log.Printf("[APPS-CACHE] Cache hit: loaded %d apps (age: %v)", len(l.apps), age)
	return true
}

// saveToCache writes the current apps atomically.
func (l *Loader) saveToCache() error {
	if err := os.MkdirAll(l.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(appsCache{
		Apps:      l.apps,
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   cacheVersion,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	tempFile := l.cacheFile + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := os.Rename(tempFile, l.cacheFile); err != nil {
		return fmt.Errorf("failed to rename temp cache file: %w", err)
	}

	log.Printf("[APPS-CACHE] Cache saved: %d apps", len(l.apps))
	return nil
}

type desktopFile struct {
	id      string
	path    string
	modTime time.Time
}

// loadFromSystem scans the application directories. The first directory
// that provides a desktop ID wins, including entries with Hidden=true.
func (l *Loader) loadFromSystem() error {
	start := time.Now()

	var files []desktopFile
	seen := make(map[string]bool)
	for _, dir := range l.dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == dir {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !strings.HasSuffix(path, ".desktop") {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return nil
			}
			id := strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
			if seen[id] {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			seen[id] = true
			files = append(files, desktopFile{id: id, path: path, modTime: info.ModTime()})
			return nil
		})
		if err != nil {
			log.Printf("[APPS-LOADER] Failed to scan %s: %v", dir, err)
		}
	}

	log.Printf("[APPS-LOADER] Found %d desktop files, parsing in parallel", len(files))

	results := make([]*App, len(files))
	var g errgroup.Group
	g.SetLimit(maxParallelParse)
	reused := 0
	var reusedMu sync.Mutex
	for i, f := range files {
		if prev, ok := l.byID[f.id]; ok && prev.File == f.path && prev.ModTime.Equal(f.modTime) {
			results[i] = prev
			reusedMu.Lock()
			reused++
			reusedMu.Unlock()
			continue
		}
		i, f := i, f
		g.Go(func() error {
			app, err := parseDesktopFile(f)
			if err != nil {
				log.Printf("[APPS-LOADER] Skipping %s: %v", f.path, err)
				return nil
			}
			results[i] = app
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	apps := make([]*App, 0, len(results))
	for _, app := range results {
		if app != nil {
			apps = append(apps, app)
		}
	}
	l.replace(apps)

	log.Printf("[APPS-LOADER] Loaded %d applications (%d unchanged) in %v", len(l.apps), reused, time.Since(start))
	return nil
}

// replace installs a new app list, keeping the previous pointer for every
// entry whose file is unchanged.
func (l *Loader) replace(apps []*App) {
	byID := make(map[string]*App, len(apps))
	merged := make([]*App, 0, len(apps))
	for _, app := range apps {
		if prev, ok := l.byID[app.ID]; ok && prev != app && prev.File == app.File && prev.ModTime.Equal(app.ModTime) {
			app = prev
		}
		byID[app.ID] = app
		merged = append(merged, app)
	}
	SortByName(merged)
	l.apps = merged
	l.byID = byID
}

func parseDesktopFile(f desktopFile) (*App, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	app, err := ParseDesktopEntry(file, f.id)
	if err != nil {
		return nil, err
	}
	app.File = f.path
	app.ModTime = f.modTime
	return app, nil
}

// SortByName orders apps case-insensitively by display name, then by ID.
func SortByName(apps []*App) {
	sort.SliceStable(apps, func(i, j int) bool {
		a, _ := apps[i].DisplayName()
		b, _ := apps[j].DisplayName()
		la, lb := strings.ToLower(a), strings.ToLower(b)
		if la != lb {
			return la < lb
		}
		return apps[i].ID < apps[j].ID
	})
}
