package core

import (
	"github.com/gotk3/gotk3/gtk"

	"github.com/keis/shell-search/internal/apps"
)

// WidgetPool keeps the grid child built for each application, so an app that
// is filtered out and back in reuses its widget instead of rebuilding icon
// and label. It is only used from the UI loop.
type WidgetPool struct {
	children map[*apps.App]*gtk.FlowBoxChild
	build    func(*apps.App) (*gtk.FlowBoxChild, error)
}

func NewWidgetPool(build func(*apps.App) (*gtk.FlowBoxChild, error)) *WidgetPool {
	return &WidgetPool{
		children: make(map[*apps.App]*gtk.FlowBoxChild),
		build:    build,
	}
}

// GetOrCreate returns the cached child for app, building it on first use.
func (wp *WidgetPool) GetOrCreate(app *apps.App) (*gtk.FlowBoxChild, error) {
	if child, ok := wp.children[app]; ok {
		return child, nil
	}
	child, err := wp.build(app)
	if err != nil {
		return nil, err
	}
	wp.children[app] = child
	return child, nil
}

// Retain drops the widgets of apps for which keep returns false, typically
// apps that disappeared in a reload.
func (wp *WidgetPool) Retain(keep func(*apps.App) bool) int {
	dropped := 0
	for app, child := range wp.children {
		if keep(app) {
			continue
		}
		if parent, _ := child.GetParent(); parent == nil {
			child.Destroy()
		}
		delete(wp.children, app)
		dropped++
	}
	return dropped
}

func (wp *WidgetPool) Size() int {
	return len(wp.children)
}
