package launcher

import (
	"log"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/keis/shell-search/internal/apps"
	"github.com/keis/shell-search/internal/config"
)

// Matcher decides whether an application matches a search query.
type Matcher struct {
	fuzzy            bool
	matchDescription bool
	matchKeywords    bool
	showHidden       bool
	desktops         []string
	cache            *MatchCache
}

func NewMatcher(cfg *config.Config, desktops []string) *Matcher {
	cache, err := NewMatchCache(cfg.Search.CacheSize)
	if err != nil {
		log.Printf("Failed to create match cache: %v", err)
		cache = nil
	}

	return &Matcher{
		fuzzy:            cfg.Search.Fuzzy,
		matchDescription: cfg.Search.MatchDescription,
		matchKeywords:    cfg.Search.MatchKeywords,
		showHidden:       cfg.Search.ShowHidden,
		desktops:         desktops,
		cache:            cache,
	}
}

// Predicate returns the filter for query, suitable for Reconcile.
func (m *Matcher) Predicate(query string) func(*apps.App) bool {
	needle := strings.ToLower(query)
	if m.cache == nil {
		return func(app *apps.App) bool { return m.match(app, needle) }
	}
	set := m.cache.forQuery(needle)
	return func(app *apps.App) bool {
		return set.lookup(app, func() bool { return m.match(app, needle) })
	}
}

// Match reports whether app matches query.
func (m *Matcher) Match(app *apps.App, query string) bool {
	return m.match(app, strings.ToLower(query))
}

// Invalidate forgets memoised results.
func (m *Matcher) Invalidate() {
	if m.cache != nil {
		m.cache.Invalidate()
	}
}

// Stats returns the cache statistics, or nil without a cache.
func (m *Matcher) Stats() *CacheStats {
	if m.cache == nil {
		return nil
	}
	return m.cache.GetStats()
}

// match expects an already lower-cased needle. Apps that should not be shown
// never match; otherwise the display name, description and keywords are
// searched.
func (m *Matcher) match(app *apps.App, needle string) bool {
	if !m.showHidden && !app.ShouldShow(m.desktops) {
		return false
	}
	if name, ok := app.DisplayName(); ok && m.contains(name, needle) {
		return true
	}
	if m.matchDescription && app.Comment != "" && m.contains(app.Comment, needle) {
		return true
	}
	if m.matchKeywords {
		for _, keyword := range app.Keywords {
			if m.contains(keyword, needle) {
				return true
			}
		}
	}
	return false
}

func (m *Matcher) contains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	if m.fuzzy {
		return len(fuzzy.Find(needle, []string{strings.ToLower(haystack)})) > 0
	}
	return strings.Contains(strings.ToLower(haystack), needle)
}
