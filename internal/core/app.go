package core

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"

	"github.com/keis/shell-search/internal/apps"
	"github.com/keis/shell-search/internal/config"
	"github.com/keis/shell-search/internal/ipc"
	"github.com/keis/shell-search/internal/launcher"
)

var (
	ErrGTKInit        = errors.New("failed to initialize GTK")
	ErrNotInitialized = errors.New("launcher window not created")
)

// App owns the main loop and everything attached to it.
type App struct {
	config    *config.Config
	running   bool
	sigChan   chan os.Signal
	loader    *apps.Loader
	watcher   *apps.Watcher
	model     *launcher.AppModel
	frecency  *launcher.FrecencyTracker
	window    *LauncherWindow
	ipc       *ipc.Server
	reloading atomic.Bool
}

func NewApp(cfg *config.Config) (*App, error) {
	return &App{
		config:  cfg,
		sigChan: make(chan os.Signal, 1),
	}, nil
}

// Run initializes GTK, builds the launcher and blocks in the main loop until
// Quit.
func (a *App) Run() error {
	if err := gtk.InitCheck(nil); err != nil {
		return fmt.Errorf("%w: %v", ErrGTKInit, err)
	}

	signal.Notify(a.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-a.sigChan
		log.Printf("Received signal: %v", sig)
		glib.IdleAdd(func() {
			a.Quit()
		})
	}()

	log.Println("shell-search starting...")

	if err := a.initialize(); err != nil {
		return err
	}

	a.running = true
	gtk.Main()
	return nil
}

func (a *App) initialize() error {
	SetupStyles()
	LoadCustomCSS(config.ExpandPath(DefaultStylePath))

	a.loader = apps.NewLoader(a.config)

	if a.config.Apps.Sort == "frecency" {
		tracker, err := launcher.NewFrecencyTracker(a.config.Apps.CacheDir)
		if err != nil {
			log.Printf("Failed to create frecency tracker: %v", err)
		} else {
			a.frecency = tracker
		}
	}

	runner, err := launcher.NewRunner(a.config.Launch)
	if err != nil {
		return fmt.Errorf("failed to create launcher: %w", err)
	}

	a.model = launcher.NewAppModel(launcher.NewMatcher(a.config, apps.CurrentDesktops()))

	window, err := NewLauncherWindow(a.config, a.model, runner, a.frecency, a.closeLauncher)
	if err != nil {
		return fmt.Errorf("failed to create launcher window: %w", err)
	}
	a.window = window

	list, err := a.loader.Load(false)
	if err != nil {
		log.Printf("Failed to load applications: %v", err)
	}
	a.window.ReplaceApps(a.sorted(list))

	if a.config.Apps.Watch {
		debounce := time.Duration(a.config.Apps.WatchDebounceMs) * time.Millisecond
		watcher, err := apps.NewWatcher(a.loader.Dirs(), debounce, a.reloadAsync)
		if err != nil {
			log.Printf("Failed to watch application directories: %v", err)
		} else {
			a.watcher = watcher
		}
	}

	if a.config.Behavior.Resident {
		server := ipc.NewServer(a.config.Behavior.SocketPath, a, func(fn func()) {
			glib.IdleAdd(fn)
		})
		if err := server.Start(); err != nil {
			log.Printf("Failed to start IPC server: %v", err)
		} else {
			a.ipc = server
		}
	} else {
		a.window.Show()
	}

	log.Println("Initialization complete")
	return nil
}

func (a *App) sorted(list []*apps.App) []*apps.App {
	if a.frecency != nil {
		a.frecency.SortApps(list)
	}
	return list
}

// reloadAsync reloads the applications off the main loop and hands the
// result to the window. Overlapping requests collapse into the running one.
func (a *App) reloadAsync() {
	if !a.reloading.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer a.reloading.Store(false)

		list, err := a.loader.Load(true)
		if err != nil {
			log.Printf("Failed to reload applications: %v", err)
			return
		}
		list = a.sorted(list)
		glib.IdleAdd(func() {
			a.window.ReplaceApps(list)
		})
	}()
}

// closeLauncher runs when the user dismisses the launcher or launched
// something. A resident instance only hides.
func (a *App) closeLauncher() {
	if a.config.Behavior.Resident {
		a.window.Hide()
		return
	}
	a.Quit()
}

func (a *App) Show() error {
	if a.window == nil {
		return ErrNotInitialized
	}
	// Launches since the last show may have changed the order.
	if a.frecency != nil {
		a.window.ReplaceApps(a.sorted(a.loader.Apps()))
	}
	a.window.Show()
	return nil
}

func (a *App) Hide() error {
	if a.window != nil {
		a.window.Hide()
	}
	return nil
}

func (a *App) Toggle() error {
	if a.window != nil && a.window.IsVisible() {
		a.window.Hide()
		return nil
	}
	return a.Show()
}

func (a *App) Reload() error {
	a.reloadAsync()
	return nil
}

// Quit stops the watcher and IPC server and leaves the main loop.
func (a *App) Quit() error {
	if !a.running {
		return nil
	}
	a.running = false

	log.Println("Shutting down...")

	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.ipc != nil {
		a.ipc.Stop()
	}
	if a.window != nil {
		a.window.Destroy()
	}

	gtk.MainQuit()
	return nil
}
