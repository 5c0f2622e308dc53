package launcher

import (
	"log"

	"github.com/keis/shell-search/internal/apps"
)

// Direction of a focus move.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	}
	return "unknown"
}

// Grid is a focusable grid of children with a selection: the results grid
// or the actions grid.
type Grid interface {
	// SelectFirst selects the first child; false when the grid is empty.
	SelectFirst() bool
	// FocusSelected moves keyboard focus to the selected child.
	FocusSelected() bool
	// Focus moves keyboard focus into the grid.
	Focus()
	// MoveFocus delegates to the toolkit's directional traversal.
	MoveFocus(dir Direction) bool
}

// View is the launcher window as the navigator drives it.
type View interface {
	SearchHasFocus() bool
	DetailsShown() bool
	SetDetailsShown(shown bool)
	Results() Grid
	Actions() Grid
	SelectedApp() (*apps.App, bool)
	SetDetails(app *apps.App) error
	Close()
}

// Navigator routes key presses between the search entry, the results grid
// and the actions grid.
type Navigator struct {
	view View
	keys *Keymap
}

func NewNavigator(view View, keys *Keymap) *Navigator {
	return &Navigator{view: view, keys: keys}
}

// ActiveGrid is the actions grid while details are shown, else the results.
func (n *Navigator) ActiveGrid() Grid {
	if n.view.DetailsShown() {
		return n.view.Actions()
	}
	return n.view.Results()
}

// Navigate moves focus in dir. Coming from the search entry, focus first
// lands on the selected child of the active grid so the move starts there.
func (n *Navigator) Navigate(dir Direction) bool {
	grid := n.ActiveGrid()
	if n.view.SearchHasFocus() {
		grid.FocusSelected()
	}
	return grid.MoveFocus(dir)
}

// OpenDetails shows the details of the selected app with its first action
// selected and focused. It does nothing without a selection.
func (n *Navigator) OpenDetails() bool {
	app, ok := n.view.SelectedApp()
	if !ok {
		return false
	}
	if err := n.view.SetDetails(app); err != nil {
		log.Printf("[NAVIGATE] Failed to show details of %s: %v", app.ID, err)
	}
	n.view.SetDetailsShown(true)
	actions := n.view.Actions()
	actions.SelectFirst()
	actions.Focus()
	return true
}

// CloseDetails returns to the results grid.
func (n *Navigator) CloseDetails() {
	if !n.view.DetailsShown() {
		return
	}
	n.view.SetDetailsShown(false)
	n.view.Results().FocusSelected()
}

// HandleKey runs the command bound to ev and reports whether ev was
// consumed. Unconsumed events reach the search entry.
func (n *Navigator) HandleKey(ev KeyEvent) bool {
	switch n.keys.Lookup(ev) {
	case CmdClose:
		n.view.Close()
		return true
	case CmdDetails:
		// A plain details key types into the search entry; with Ctrl it
		// always opens the details.
		if ev.Mods&ModCtrl != 0 || !n.view.SearchHasFocus() {
			n.OpenDetails()
			return true
		}
		return false
	case CmdBack:
		if n.view.DetailsShown() && !n.view.SearchHasFocus() {
			n.CloseDetails()
			return true
		}
		return false
	case CmdUp:
		n.Navigate(DirUp)
		return true
	case CmdDown:
		n.Navigate(DirDown)
		return true
	case CmdLeft:
		n.Navigate(DirLeft)
		return true
	case CmdRight:
		n.Navigate(DirRight)
		return true
	}
	return false
}
