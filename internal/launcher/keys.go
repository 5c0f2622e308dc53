package launcher

import (
	"fmt"
	"strings"

	"github.com/keis/shell-search/internal/config"
)

// Modifier is a bit set of held modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

// KeyEvent is a key press as the navigator sees it. Name is the keyval name
// ("Escape", "space", "Left", "a").
type KeyEvent struct {
	Name string
	Mods Modifier
}

// Binding is a key plus the modifiers that must be held for it.
type Binding struct {
	Key  string
	Mods Modifier
}

// ParseBinding parses strings such as "Escape", "Ctrl+space" or
// "Ctrl+Alt+BackSpace".
func ParseBinding(s string) (Binding, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Binding{}, fmt.Errorf("empty key binding")
	}

	var b Binding
	parts := strings.Split(s, "+")
	key := parts[len(parts)-1]
	if key == "" {
		// "Ctrl++" binds the plus key.
		if len(parts) >= 2 && parts[len(parts)-2] == "" {
			parts = parts[:len(parts)-1]
			key = "plus"
		} else {
			return Binding{}, fmt.Errorf("key binding %q has no key", s)
		}
	}
	for _, mod := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(mod)) {
		case "ctrl", "control":
			b.Mods |= ModCtrl
		case "alt", "mod1":
			b.Mods |= ModAlt
		case "shift":
			b.Mods |= ModShift
		case "super", "mod4", "logo":
			b.Mods |= ModSuper
		case "":
		default:
			return Binding{}, fmt.Errorf("unknown modifier %q in key binding %q", mod, s)
		}
	}
	b.Key = strings.TrimSpace(key)
	return b, nil
}

// Matches reports whether ev presses the bound key with at least the bound
// modifiers held. Single letters compare case-insensitively since Shift
// changes the keyval name.
func (b Binding) Matches(ev KeyEvent) bool {
	if ev.Mods&b.Mods != b.Mods {
		return false
	}
	if len(b.Key) == 1 && len(ev.Name) == 1 {
		return strings.EqualFold(b.Key, ev.Name)
	}
	return b.Key == ev.Name
}

func (b Binding) String() string {
	var parts []string
	if b.Mods&ModCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if b.Mods&ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if b.Mods&ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if b.Mods&ModSuper != 0 {
		parts = append(parts, "Super")
	}
	return strings.Join(append(parts, b.Key), "+")
}

// Command is what a key press asks the launcher to do.
type Command int

const (
	CmdNone Command = iota
	CmdClose
	CmdDetails
	CmdBack
	CmdUp
	CmdDown
	CmdLeft
	CmdRight
)

type commandBindings struct {
	cmd      Command
	bindings []Binding
}

// Keymap resolves key presses to commands. Earlier commands win when two
// bindings match the same event.
type Keymap struct {
	entries []commandBindings
}

func NewKeymap(keys config.KeysConfig) (*Keymap, error) {
	km := &Keymap{}
	for _, spec := range []struct {
		cmd  Command
		name string
		keys []string
	}{
		{CmdClose, "close", keys.Close},
		{CmdDetails, "details", keys.Details},
		{CmdBack, "back", keys.Back},
		{CmdUp, "up", keys.Up},
		{CmdDown, "down", keys.Down},
		{CmdLeft, "left", keys.Left},
		{CmdRight, "right", keys.Right},
	} {
		entry := commandBindings{cmd: spec.cmd}
		for _, key := range spec.keys {
			b, err := ParseBinding(key)
			if err != nil {
				return nil, fmt.Errorf("keys.%s: %w", spec.name, err)
			}
			entry.bindings = append(entry.bindings, b)
		}
		km.entries = append(km.entries, entry)
	}
	return km, nil
}

func (k *Keymap) Lookup(ev KeyEvent) Command {
	for _, entry := range k.entries {
		for _, b := range entry.bindings {
			if b.Matches(ev) {
				return entry.cmd
			}
		}
	}
	return CmdNone
}
