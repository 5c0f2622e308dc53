package launcher

import (
	"log"
	"time"

	"github.com/keis/shell-search/internal/apps"
)

// AppModel is the list behind the results grid: every known application
// (the source) and the subset matching the current query (the filtered
// view). Both are kept up to date by reconciliation rather than rebuilt.
type AppModel struct {
	matcher  *Matcher
	source   *Store[*apps.App]
	filtered *Store[*apps.App]
	query    string
}

func NewAppModel(matcher *Matcher) *AppModel {
	return &AppModel{
		matcher:  matcher,
		source:   NewStore[*apps.App](),
		filtered: NewStore[*apps.App](),
	}
}

// Source is every loaded application in display order.
func (m *AppModel) Source() *Store[*apps.App] { return m.source }

// Filtered is the matching subset, the list the results grid is bound to.
func (m *AppModel) Filtered() *Store[*apps.App] { return m.filtered }

func (m *AppModel) Query() string { return m.query }

// ApplySearch narrows or widens the filtered view to query.
func (m *AppModel) ApplySearch(query string) {
	start := time.Now()
	m.query = query
	Reconcile[*apps.App](m.source, m.filtered, m.matcher.Predicate(query))
	log.Printf("[SEARCH] query=%q matched %d/%d apps in %v", query, m.filtered.Len(), m.source.Len(), time.Since(start))
}

// Replace installs a freshly loaded app list and re-applies the current
// query. Entries present before and after keep their position in both views.
func (m *AppModel) Replace(list []*apps.App) {
	m.matcher.Invalidate()
	Reconcile[*apps.App](Slice[*apps.App](list), m.source, func(*apps.App) bool { return true })
	m.ApplySearch(m.query)
}

// AppAt returns the app shown at index of the filtered view.
func (m *AppModel) AppAt(index int) (*apps.App, bool) {
	return m.filtered.Get(index)
}
