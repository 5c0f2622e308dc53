package core

import (
	"fmt"
	"log"

	"github.com/gotk3/gotk3/gtk"

	"github.com/keis/shell-search/internal/launcher"
)

// flowGrid adapts a FlowBox to the navigator's Grid.
type flowGrid struct {
	box *gtk.FlowBox
}

func newFlowGrid(name string, columns uint) (*flowGrid, error) {
	box, err := gtk.FlowBoxNew()
	if err != nil {
		return nil, fmt.Errorf("failed to create flow box: %w", err)
	}
	box.SetName(name)
	box.SetSelectionMode(gtk.SELECTION_SINGLE)
	box.SetActivateOnSingleClick(false)
	box.SetHomogeneous(true)
	box.SetValign(gtk.ALIGN_START)
	if columns > 0 {
		box.SetMaxChildrenPerLine(columns)
	}
	return &flowGrid{box: box}, nil
}

func (g *flowGrid) selected() *gtk.FlowBoxChild {
	children := g.box.GetSelectedChildren()
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// SelectedIndex is the position of the selected child, or -1.
func (g *flowGrid) SelectedIndex() int {
	child := g.selected()
	if child == nil {
		return -1
	}
	return child.GetIndex()
}

func (g *flowGrid) SelectIndex(index int) bool {
	child := g.box.GetChildAtIndex(index)
	if child == nil {
		return false
	}
	g.box.SelectChild(child)
	return true
}

func (g *flowGrid) SelectFirst() bool {
	return g.SelectIndex(0)
}

func (g *flowGrid) FocusSelected() bool {
	child := g.selected()
	if child == nil {
		return false
	}
	child.GrabFocus()
	return true
}

func (g *flowGrid) Focus() {
	if !g.FocusSelected() {
		g.box.GrabFocus()
	}
}

func (g *flowGrid) MoveFocus(dir launcher.Direction) bool {
	return g.box.ChildFocus(gtkDirection(dir))
}

// ActivateSelected activates the selected child, which makes the box emit
// child-activated.
func (g *flowGrid) ActivateSelected() bool {
	child := g.selected()
	if child == nil {
		return false
	}
	return child.Activate()
}

func gtkDirection(dir launcher.Direction) gtk.DirectionType {
	switch dir {
	case launcher.DirUp:
		return gtk.DIR_UP
	case launcher.DirDown:
		return gtk.DIR_DOWN
	case launcher.DirLeft:
		return gtk.DIR_LEFT
	}
	return gtk.DIR_RIGHT
}

// bindGrid mirrors every change of store into the grid's children. child
// supplies the widget for an inserted item.
func bindGrid[T any](g *flowGrid, store *launcher.Store[T], child func(T) (*gtk.FlowBoxChild, error)) {
	store.Subscribe(func(c launcher.Change[T]) {
		switch c.Kind {
		case launcher.Inserted:
			widget, err := child(c.Item)
			if err != nil {
				log.Printf("[GRID] Failed to create child: %v", err)
				// Keep indices aligned with the store.
				placeholder, perr := gtk.FlowBoxChildNew()
				if perr != nil {
					log.Printf("[GRID] Failed to create placeholder: %v", perr)
					return
				}
				widget = placeholder
			}
			g.box.Insert(widget, c.Index)
			widget.Show()
		case launcher.Removed:
			if widget := g.box.GetChildAtIndex(c.Index); widget != nil {
				g.box.Remove(widget)
			}
		}
	})
}
