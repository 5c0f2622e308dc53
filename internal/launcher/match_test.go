package launcher

import (
	"testing"

	"github.com/keis/shell-search/internal/apps"
	"github.com/keis/shell-search/internal/config"
)

func newTestMatcher(t *testing.T, mutate func(*config.Config)) *Matcher {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return NewMatcher(cfg, []string{"sway"})
}

func TestMatcherMatch(t *testing.T) {
	firefox := &apps.App{
		ID:       "firefox.desktop",
		Name:     "Firefox",
		Comment:  "Browse the World Wide Web",
		Keywords: []string{"Internet", "WWW"},
	}
	hidden := &apps.App{ID: "hidden.desktop", Name: "Firefox Helper", NoDisplay: true}
	gnomeOnly := &apps.App{ID: "gnome.desktop", Name: "Firefox Gnome", OnlyShowIn: []string{"GNOME"}}

	m := newTestMatcher(t, nil)

	tests := []struct {
		name  string
		app   *apps.App
		query string
		want  bool
	}{
		{"empty query", firefox, "", true},
		{"name substring", firefox, "fox", true},
		{"case insensitive", firefox, "FIRE", true},
		{"description", firefox, "world wide", true},
		{"keyword", firefox, "internet", true},
		{"no match", firefox, "terminal", false},
		{"no display", hidden, "", false},
		{"only show in other desktop", gnomeOnly, "firefox", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Match(tt.app, tt.query); got != tt.want {
				t.Errorf("Match(%s, %q) = %v, want %v", tt.app.ID, tt.query, got, tt.want)
			}
		})
	}
}

func TestMatcherOptionalFields(t *testing.T) {
	app := &apps.App{ID: "x.desktop", Name: "Xterm", Comment: "standard terminal", Keywords: []string{"shell"}}

	m := newTestMatcher(t, func(c *config.Config) {
		c.Search.MatchDescription = false
		c.Search.MatchKeywords = false
	})

	if m.Match(app, "terminal") {
		t.Error("description should not be searched")
	}
	if m.Match(app, "shell") {
		t.Error("keywords should not be searched")
	}
	if !m.Match(app, "xterm") {
		t.Error("name should still match")
	}
}

func TestMatcherShowHidden(t *testing.T) {
	app := &apps.App{ID: "h.desktop", Name: "Hidden", NoDisplay: true}
	m := newTestMatcher(t, func(c *config.Config) { c.Search.ShowHidden = true })

	if !m.Match(app, "hid") {
		t.Error("hidden app should match with show_hidden")
	}
}

func TestMatcherFuzzy(t *testing.T) {
	app := &apps.App{ID: "code.desktop", Name: "Visual Studio Code"}
	m := newTestMatcher(t, func(c *config.Config) { c.Search.Fuzzy = true })

	if !m.Match(app, "vsc") {
		t.Error("fuzzy query should match")
	}
	if m.Match(app, "xyz") {
		t.Error("unrelated query should not match")
	}
}

func TestMatcherPredicateCaches(t *testing.T) {
	app := &apps.App{ID: "a.desktop", Name: "Alpha"}
	m := newTestMatcher(t, nil)

	if !m.Predicate("al")(app) {
		t.Fatal("expected match")
	}
	if !m.Predicate("al")(app) {
		t.Fatal("expected cached match")
	}

	stats := m.Stats()
	if stats == nil {
		t.Fatal("expected cache stats")
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d/%d", stats.Hits, stats.Misses)
	}

	// A changed app must not be answered from stale results.
	m.Invalidate()
	app.Name = "Beta"
	if m.Predicate("al")(app) {
		t.Error("stale cached result after Invalidate")
	}
}
