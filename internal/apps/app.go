package apps

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrMissingDisplayName = errors.New("missing display name")
	ErrUnknownAction      = errors.New("unknown desktop action")
)

// App represents a desktop application
type App struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	GenericName string    `json:"generic_name,omitempty"`
	Comment     string    `json:"comment,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Exec        string    `json:"exec"`
	TryExec     string    `json:"try_exec,omitempty"`
	Path        string    `json:"path,omitempty"`
	Type        string    `json:"type"`
	Terminal    bool      `json:"terminal,omitempty"`
	Keywords    []string  `json:"keywords,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
	NoDisplay   bool      `json:"no_display,omitempty"`
	Hidden      bool      `json:"hidden,omitempty"`
	OnlyShowIn  []string  `json:"only_show_in,omitempty"`
	NotShowIn   []string  `json:"not_show_in,omitempty"`
	Actions     []Action  `json:"actions,omitempty"`
	File        string    `json:"file"`
	ModTime     time.Time `json:"mod_time"`
}

// Action is a desktop entry quick action ("[Desktop Action <id>]" group).
type Action struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
	Exec string `json:"exec"`
}

// DisplayName returns the name shown to the user. It falls back to the
// generic name and then the desktop ID; ok is false when none is available.
func (a *App) DisplayName() (name string, ok bool) {
	if a.Name != "" {
		return a.Name, true
	}
	if a.GenericName != "" {
		return a.GenericName, true
	}
	if id := strings.TrimSuffix(a.ID, ".desktop"); id != "" {
		return id, true
	}
	return "", false
}

// ActionName returns the display name of an action, falling back to its ID.
func (a *Action) ActionName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// FindAction looks up a quick action by ID.
func (a *App) FindAction(id string) (*Action, error) {
	for i := range a.Actions {
		if a.Actions[i].ID == id {
			return &a.Actions[i], nil
		}
	}
	return nil, ErrUnknownAction
}

// ShouldShow reports whether the app belongs in a menu on the given desktops
// (the colon separated XDG_CURRENT_DESKTOP entries).
func (a *App) ShouldShow(desktops []string) bool {
	if a.NoDisplay || a.Hidden {
		return false
	}
	if a.Type != "" && a.Type != "Application" {
		return false
	}
	if len(a.OnlyShowIn) > 0 && !intersects(a.OnlyShowIn, desktops) {
		return false
	}
	if intersects(a.NotShowIn, desktops) {
		return false
	}
	if a.TryExec != "" && !executableExists(a.TryExec) {
		return false
	}
	return true
}

// CurrentDesktops splits XDG_CURRENT_DESKTOP.
func CurrentDesktops() []string {
	value := os.Getenv("XDG_CURRENT_DESKTOP")
	if value == "" {
		return nil
	}
	return strings.Split(value, ":")
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(x, y) {
				return true
			}
		}
	}
	return false
}

func executableExists(name string) bool {
	if filepath.IsAbs(name) {
		info, err := os.Stat(name)
		return err == nil && !info.IsDir() && info.Mode()&0111 != 0
	}
	_, err := exec.LookPath(name)
	return err == nil
}
