package core

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/gtk"
	"github.com/gotk3/gotk3/pango"

	"github.com/keis/shell-search/internal/apps"
	"github.com/keis/shell-search/internal/config"
	"github.com/keis/shell-search/internal/launcher"
	"github.com/keis/shell-search/internal/layer"
)

var debugLogger = log.New(log.Writer(), "[LAUNCHER-DEBUG] ", log.LstdFlags|log.Lmicroseconds)

var ErrNoSelection = errors.New("nothing selected")

// LauncherWindow is the overlay: a search entry above the results grid, with
// the details view taking the grid's place while shown.
type LauncherWindow struct {
	config       *config.Config
	window       *gtk.Window
	searchEntry  *gtk.SearchEntry
	scrolled     *gtk.ScrolledWindow
	results      *flowGrid
	details      *ApplicationDetails
	model        *launcher.AppModel
	pool         *WidgetPool
	icons        *IconCache
	navigator    *launcher.Navigator
	runner       launcher.Runner
	frecency     *launcher.FrecencyTracker
	detailsShown bool
	visible      bool
	onClose      func()
}

// NewLauncherWindow builds the window. onClose runs when the user dismisses
// the launcher or launched something.
func NewLauncherWindow(cfg *config.Config, model *launcher.AppModel, runner launcher.Runner, frecency *launcher.FrecencyTracker, onClose func()) (*LauncherWindow, error) {
	keymap, err := launcher.NewKeymap(cfg.Keys)
	if err != nil {
		return nil, fmt.Errorf("invalid key bindings: %w", err)
	}

	icons, err := NewIconCache(cfg.Icons)
	if err != nil {
		log.Printf("Failed to create icon cache: %v", err)
		icons = nil
	}

	window, err := gtk.WindowNew(gtk.WINDOW_TOPLEVEL)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	window.SetName("launcher-window")
	window.SetTitle("shell-search")
	window.SetDecorated(cfg.Window.Decorated)
	window.SetResizable(cfg.Window.Resizable)
	window.SetDefaultSize(cfg.Window.Width, cfg.Window.Height)
	window.SetOpacity(cfg.Window.Opacity)
	window.SetSkipTaskbarHint(true)
	window.SetSkipPagerHint(true)

	box, err := gtk.BoxNew(gtk.ORIENTATION_VERTICAL, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create box: %w", err)
	}
	box.SetName("main-box")
	window.Add(box)

	searchEntry, err := gtk.SearchEntryNew()
	if err != nil {
		return nil, fmt.Errorf("failed to create search entry: %w", err)
	}
	searchEntry.SetName("search")
	searchEntry.SetPlaceholderText("Search applications...")
	box.PackStart(searchEntry, false, false, 0)

	scrolled, err := gtk.ScrolledWindowNew(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create scrolled window: %w", err)
	}
	scrolled.SetPolicy(gtk.POLICY_NEVER, gtk.POLICY_AUTOMATIC)
	scrolled.SetVExpand(true)
	box.PackStart(scrolled, true, true, 0)

	results, err := newFlowGrid("results", 0)
	if err != nil {
		return nil, err
	}
	scrolled.Add(results.box)

	l := &LauncherWindow{
		config:      cfg,
		window:      window,
		searchEntry: searchEntry,
		scrolled:    scrolled,
		results:     results,
		model:       model,
		icons:       icons,
		runner:      runner,
		frecency:    frecency,
		onClose:     onClose,
	}

	details, err := NewApplicationDetails(cfg, icons)
	if err != nil {
		return nil, err
	}
	l.details = details
	box.PackStart(details.box, true, true, 0)

	l.pool = NewWidgetPool(l.buildEntry)
	l.navigator = launcher.NewNavigator(l, keymap)

	bindGrid(results, model.Filtered(), l.pool.GetOrCreate)
	l.setupSignals()

	if layer.IsSupported() {
		layer.SetupOverlay(window, "shell-search", layer.Margins{
			Top:    cfg.Window.MarginTop,
			Bottom: cfg.Window.MarginBottom,
			Left:   cfg.Window.MarginLeft,
			Right:  cfg.Window.MarginRight,
		})
	} else {
		log.Printf("Layer shell not supported, using a regular window")
	}

	return l, nil
}

func (l *LauncherWindow) setupSignals() {
	l.searchEntry.Connect("search-changed", func() {
		text, _ := l.searchEntry.GetText()
		l.onSearchChanged(text)
	})

	l.searchEntry.Connect("activate", func() {
		l.activateSelected()
	})

	l.window.Connect("key-press-event", func(win *gtk.Window, event *gdk.Event) bool {
		return l.navigator.HandleKey(keyEventFrom(gdk.EventKeyNewFromEvent(event)))
	})

	l.results.box.Connect("child-activated", func(box *gtk.FlowBox, child *gtk.FlowBoxChild) {
		app, ok := l.model.AppAt(child.GetIndex())
		if !ok {
			return
		}
		l.launch(app, nil)
	})

	l.details.actions.box.Connect("child-activated", func(box *gtk.FlowBox, child *gtk.FlowBoxChild) {
		app := l.details.App()
		action, ok := l.details.ActionAt(child.GetIndex())
		if app == nil || !ok {
			return
		}
		l.launch(app, action)
	})

	l.window.Connect("delete-event", func() bool {
		l.close()
		return true
	})
}

func (l *LauncherWindow) onSearchChanged(text string) {
	debugLogger.Printf("SEARCH_CHANGED: text=%q", text)
	if l.detailsShown {
		l.SetDetailsShown(false)
	}
	l.model.ApplySearch(text)
	l.results.SelectFirst()
}

// activateSelected launches whatever is selected in the active grid.
func (l *LauncherWindow) activateSelected() {
	grid := l.results
	if l.detailsShown {
		grid = l.details.actions
	}
	if !grid.ActivateSelected() {
		debugLogger.Printf("ACTIVATE: %v", ErrNoSelection)
	}
}

// launch starts app, or one of its actions, then closes the launcher. A
// failed launch is logged and still closes.
func (l *LauncherWindow) launch(app *apps.App, action *apps.Action) {
	ctx := launchContext(app)

	var err error
	if action != nil {
		log.Printf("[LAUNCH] %s action %s", app.ID, action.ID)
		err = l.runner.LaunchAction(app, action, ctx)
	} else {
		log.Printf("[LAUNCH] %s", app.ID)
		err = l.runner.LaunchApp(app, ctx)
	}

	if err != nil {
		log.Printf("[LAUNCH] Failed to launch %s: %v", app.ID, err)
	} else if l.frecency != nil {
		l.frecency.RecordLaunch(app.ID)
	}

	l.close()
}

func (l *LauncherWindow) close() {
	if l.onClose != nil {
		l.onClose()
	}
}

// ReplaceApps installs a reloaded app list, keeping the selection on the
// same app when it is still listed.
func (l *LauncherWindow) ReplaceApps(list []*apps.App) {
	selected, hadSelection := l.SelectedApp()

	l.model.Replace(list)

	present := make(map[*apps.App]bool, len(list))
	for _, app := range list {
		present[app] = true
	}
	if dropped := l.pool.Retain(func(app *apps.App) bool { return present[app] }); dropped > 0 {
		debugLogger.Printf("RELOAD: dropped %d stale widgets", dropped)
	}

	if l.detailsShown && !present[l.details.App()] {
		l.SetDetailsShown(false)
	}

	if hadSelection {
		filtered := l.model.Filtered()
		for i := 0; i < filtered.Len(); i++ {
			if filtered.At(i) == selected {
				l.results.SelectIndex(i)
				return
			}
		}
	}
	l.results.SelectFirst()
}

func (l *LauncherWindow) Show() {
	l.window.ShowAll()
	l.SetDetailsShown(false)
	l.window.Present()
	l.searchEntry.GrabFocus()
	l.results.SelectFirst()
	l.visible = true
}

func (l *LauncherWindow) Hide() {
	l.window.Hide()
	l.searchEntry.SetText("")
	l.visible = false
}

func (l *LauncherWindow) IsVisible() bool {
	return l.visible
}

func (l *LauncherWindow) Destroy() {
	l.window.Destroy()
}

// The methods below let the navigator drive the window.

func (l *LauncherWindow) SearchHasFocus() bool {
	return l.searchEntry.HasFocus()
}

func (l *LauncherWindow) DetailsShown() bool {
	return l.detailsShown
}

func (l *LauncherWindow) SetDetailsShown(shown bool) {
	l.detailsShown = shown
	l.scrolled.SetVisible(!shown)
	l.details.box.SetVisible(shown)
}

func (l *LauncherWindow) Results() launcher.Grid {
	return l.results
}

func (l *LauncherWindow) Actions() launcher.Grid {
	return l.details.actions
}

func (l *LauncherWindow) SelectedApp() (*apps.App, bool) {
	index := l.results.SelectedIndex()
	if index < 0 {
		return nil, false
	}
	return l.model.AppAt(index)
}

func (l *LauncherWindow) SetDetails(app *apps.App) error {
	return l.details.SetApp(app)
}

func (l *LauncherWindow) Close() {
	l.close()
}

func (l *LauncherWindow) buildEntry(app *apps.App) (*gtk.FlowBoxChild, error) {
	child, err := gtk.FlowBoxChildNew()
	if err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	child.SetName("entry")

	box, err := gtk.BoxNew(gtk.ORIENTATION_VERTICAL, 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create entry box: %w", err)
	}
	size := l.config.Grid.EntrySize
	box.SetSizeRequest(size, size)

	icon, err := gtk.ImageNew()
	if err != nil {
		return nil, fmt.Errorf("failed to create entry icon: %w", err)
	}
	setImage(icon, l.icons, app.Icon, l.config.Grid.IconSize, l.config.Icons.Fallback)

	name, ok := app.DisplayName()
	if !ok {
		log.Printf("[GRID] %s: %v", app.ID, apps.ErrMissingDisplayName)
	}
	label, err := gtk.LabelNew(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create entry label: %w", err)
	}
	label.SetMaxWidthChars(l.config.Grid.LabelMaxChars)
	label.SetEllipsize(pango.ELLIPSIZE_END)
	label.SetJustify(gtk.JUSTIFY_CENTER)

	box.PackStart(icon, false, false, 0)
	box.PackStart(label, false, false, 0)
	child.Add(box)
	if app.Comment != "" {
		child.SetTooltipText(app.Comment)
	}
	child.ShowAll()
	return child, nil
}

// setImage shows the icon called name, or the fallback icon.
func setImage(image *gtk.Image, icons *IconCache, name string, size int, fallback string) {
	if icons != nil {
		if pixbuf, err := icons.GetIcon(name, size); err == nil {
			image.SetFromPixbuf(pixbuf)
			return
		}
	}
	if name == "" || strings.HasPrefix(name, "/") {
		name = fallback
	}
	image.SetFromIconName(name, gtk.ICON_SIZE_DIALOG)
	image.SetPixelSize(size)
}

func keyEventFrom(event *gdk.EventKey) launcher.KeyEvent {
	state := gdk.ModifierType(event.State())

	var mods launcher.Modifier
	if state&gdk.SHIFT_MASK != 0 {
		mods |= launcher.ModShift
	}
	if state&gdk.CONTROL_MASK != 0 {
		mods |= launcher.ModCtrl
	}
	if state&gdk.MOD1_MASK != 0 {
		mods |= launcher.ModAlt
	}
	if state&gdk.SUPER_MASK != 0 {
		mods |= launcher.ModSuper
	}

	return launcher.KeyEvent{Name: gdk.KeyvalName(event.KeyVal()), Mods: mods}
}

// launchContext describes the display app should appear on and gives the
// launch a fresh startup id.
func launchContext(app *apps.App) *launcher.LaunchContext {
	ctx := &launcher.LaunchContext{StartupID: launcher.NewStartupID(app.ID, time.Now())}

	display, err := gdk.DisplayGetDefault()
	if err != nil {
		return ctx
	}
	name, err := display.GetName()
	if err != nil || name == "" {
		return ctx
	}
	if strings.HasPrefix(name, "wayland") {
		ctx.Env = []string{"WAYLAND_DISPLAY=" + name}
	} else {
		ctx.Env = []string{"DISPLAY=" + name}
	}
	return ctx
}
