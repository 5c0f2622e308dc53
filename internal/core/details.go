package core

import (
	"fmt"

	"github.com/gotk3/gotk3/gtk"
	"github.com/gotk3/gotk3/pango"

	"github.com/keis/shell-search/internal/apps"
	"github.com/keis/shell-search/internal/config"
	"github.com/keis/shell-search/internal/launcher"
)

// ApplicationDetails shows one application with its quick actions.
type ApplicationDetails struct {
	box     *gtk.Box
	icon    *gtk.Image
	name    *gtk.Label
	comment *gtk.Label
	actions *flowGrid
	store   *launcher.Store[*apps.Action]
	app     *apps.App
	icons   *IconCache
	cfg     *config.Config
}

func NewApplicationDetails(cfg *config.Config, icons *IconCache) (*ApplicationDetails, error) {
	box, err := gtk.BoxNew(gtk.ORIENTATION_VERTICAL, 8)
	if err != nil {
		return nil, fmt.Errorf("failed to create details box: %w", err)
	}
	box.SetName("details")

	icon, err := gtk.ImageNew()
	if err != nil {
		return nil, fmt.Errorf("failed to create details icon: %w", err)
	}

	name, err := gtk.LabelNew("")
	if err != nil {
		return nil, fmt.Errorf("failed to create details label: %w", err)
	}
	name.SetName("details-name")

	comment, err := gtk.LabelNew("")
	if err != nil {
		return nil, fmt.Errorf("failed to create details comment: %w", err)
	}
	comment.SetName("details-comment")
	comment.SetLineWrap(true)
	comment.SetJustify(gtk.JUSTIFY_CENTER)

	actions, err := newFlowGrid("actions", 0)
	if err != nil {
		return nil, err
	}

	box.PackStart(icon, false, false, 0)
	box.PackStart(name, false, false, 0)
	box.PackStart(comment, false, false, 0)
	box.PackStart(actions.box, true, true, 0)

	d := &ApplicationDetails{
		box:     box,
		icon:    icon,
		name:    name,
		comment: comment,
		actions: actions,
		store:   launcher.NewStore[*apps.Action](),
		icons:   icons,
		cfg:     cfg,
	}
	bindGrid(actions, d.store, d.buildAction)
	return d, nil
}

// SetApp fills the view from app. The icon and actions are set even when
// the app has no display name; that case is reported as an error.
func (d *ApplicationDetails) SetApp(app *apps.App) error {
	d.app = app

	setImage(d.icon, d.icons, app.Icon, d.cfg.Grid.IconSize, d.cfg.Icons.Fallback)
	d.comment.SetText(app.Comment)

	list := make(launcher.Slice[*apps.Action], len(app.Actions))
	for i := range app.Actions {
		list[i] = &app.Actions[i]
	}
	launcher.Reconcile[*apps.Action](list, d.store, func(*apps.Action) bool { return true })

	name, ok := app.DisplayName()
	d.name.SetText(name)
	if !ok {
		return fmt.Errorf("%s: %w", app.ID, apps.ErrMissingDisplayName)
	}
	return nil
}

// App is the application currently shown.
func (d *ApplicationDetails) App() *apps.App { return d.app }

// ActionAt returns the action shown at index of the action grid.
func (d *ApplicationDetails) ActionAt(index int) (*apps.Action, bool) {
	return d.store.Get(index)
}

func (d *ApplicationDetails) buildAction(action *apps.Action) (*gtk.FlowBoxChild, error) {
	child, err := gtk.FlowBoxChildNew()
	if err != nil {
		return nil, err
	}
	child.SetName("action")

	label, err := gtk.LabelNew(action.ActionName())
	if err != nil {
		return nil, err
	}
	label.SetEllipsize(pango.ELLIPSIZE_END)
	label.SetMaxWidthChars(24)

	child.Add(label)
	child.ShowAll()
	return child, nil
}
