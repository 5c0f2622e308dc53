package core

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/gtk"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/keis/shell-search/internal/config"
)

// IconCache keeps loaded pixbufs by name and size. Names may be icon theme
// names or absolute file paths, as desktop entries allow both.
type IconCache struct {
	cache     *lru.Cache[string, *gdk.Pixbuf]
	theme     *gtk.IconTheme
	maxSize   int
	mu        sync.Mutex
	fallback  string
	cacheHits int64
	cacheMiss int64
}

func NewIconCache(cfg config.IconsConfig) (*IconCache, error) {
	maxSize := cfg.CacheSize
	if maxSize <= 0 {
		maxSize = 200
	}

	cache, err := lru.New[string, *gdk.Pixbuf](maxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create icon cache: %w", err)
	}

	iconTheme, err := gtk.IconThemeGetDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to get default icon theme: %w", err)
	}

	fallback := cfg.Fallback
	if fallback == "" {
		fallback = "application-x-executable"
	}

	return &IconCache{
		cache:    cache,
		theme:    iconTheme,
		maxSize:  maxSize,
		fallback: fallback,
	}, nil
}

// GetIcon returns the icon called name at size pixels, or the fallback icon
// when name is empty or cannot be loaded.
func (ic *IconCache) GetIcon(name string, size int) (*gdk.Pixbuf, error) {
	if name == "" {
		name = ic.fallback
	}

	pixbuf, err := ic.load(name, size)
	if err == nil {
		return pixbuf, nil
	}
	if name == ic.fallback {
		return nil, err
	}

	log.Printf("[ICON-CACHE] Failed to load %q (%v), using fallback %q", name, err, ic.fallback)
	return ic.load(ic.fallback, size)
}

func (ic *IconCache) load(name string, size int) (*gdk.Pixbuf, error) {
	key := fmt.Sprintf("%s@%d", name, size)

	ic.mu.Lock()
	defer ic.mu.Unlock()

	if pixbuf, ok := ic.cache.Get(key); ok {
		ic.cacheHits++
		return pixbuf, nil
	}
	ic.cacheMiss++

	var (
		pixbuf *gdk.Pixbuf
		err    error
	)
	if filepath.IsAbs(name) {
		pixbuf, err = gdk.PixbufNewFromFileAtScale(name, size, size, true)
	} else {
		if !ic.theme.HasIcon(name) {
			return nil, fmt.Errorf("icon %q not found in theme", name)
		}
		pixbuf, err = ic.theme.LoadIcon(name, size, gtk.ICON_LOOKUP_FORCE_SIZE)
	}
	if err != nil {
		return nil, err
	}
	if pixbuf == nil {
		return nil, fmt.Errorf("icon %q loaded empty", name)
	}

	ic.cache.Add(key, pixbuf)
	return pixbuf, nil
}

// GetStats returns hit and miss counts, the hit rate in percent and the
// number of cached icons.
func (ic *IconCache) GetStats() (hits, misses int, hitRate float64, size int) {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	hits = int(ic.cacheHits)
	misses = int(ic.cacheMiss)
	size = ic.cache.Len()

	total := hits + misses
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return hits, misses, hitRate, size
}

// Clear drops every cached icon, e.g. after the icon theme changed.
func (ic *IconCache) Clear() {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	ic.cache.Purge()
	log.Printf("[ICON-CACHE] Cache cleared")
}
