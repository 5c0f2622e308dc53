package launcher

import (
	"testing"

	"github.com/keis/shell-search/internal/config"
)

func TestParseBinding(t *testing.T) {
	tests := []struct {
		in      string
		want    Binding
		wantErr bool
	}{
		{in: "Escape", want: Binding{Key: "Escape"}},
		{in: "Ctrl+space", want: Binding{Key: "space", Mods: ModCtrl}},
		{in: "control+Alt+BackSpace", want: Binding{Key: "BackSpace", Mods: ModCtrl | ModAlt}},
		{in: "Super+Shift+a", want: Binding{Key: "a", Mods: ModSuper | ModShift}},
		{in: "Ctrl++", want: Binding{Key: "plus", Mods: ModCtrl}},
		{in: "", wantErr: true},
		{in: "Ctrl+", wantErr: true},
		{in: "Hyper+x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBinding(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseBinding(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBindingMatches(t *testing.T) {
	ctrlSpace := Binding{Key: "space", Mods: ModCtrl}

	if !ctrlSpace.Matches(KeyEvent{Name: "space", Mods: ModCtrl}) {
		t.Error("exact modifiers should match")
	}
	if !ctrlSpace.Matches(KeyEvent{Name: "space", Mods: ModCtrl | ModShift}) {
		t.Error("extra modifiers should still match")
	}
	if ctrlSpace.Matches(KeyEvent{Name: "space"}) {
		t.Error("missing modifier should not match")
	}
	if !(Binding{Key: "q"}).Matches(KeyEvent{Name: "Q", Mods: ModShift}) {
		t.Error("letters should match regardless of case")
	}
	if (Binding{Key: "Up"}).Matches(KeyEvent{Name: "up"}) {
		t.Error("named keys are case sensitive")
	}
}

func TestBindingString(t *testing.T) {
	b := Binding{Key: "x", Mods: ModShift | ModCtrl}
	if got := b.String(); got != "Ctrl+Shift+x" {
		t.Errorf("expected Ctrl+Shift+x, got %q", got)
	}
}

func TestKeymapLookup(t *testing.T) {
	km, err := NewKeymap(config.Default().Keys)
	if err != nil {
		t.Fatalf("NewKeymap failed: %v", err)
	}

	tests := []struct {
		ev   KeyEvent
		want Command
	}{
		{KeyEvent{Name: "Escape"}, CmdClose},
		{KeyEvent{Name: "space"}, CmdDetails},
		{KeyEvent{Name: "space", Mods: ModCtrl}, CmdDetails},
		{KeyEvent{Name: "BackSpace"}, CmdBack},
		{KeyEvent{Name: "Up"}, CmdUp},
		{KeyEvent{Name: "Down"}, CmdDown},
		{KeyEvent{Name: "Left"}, CmdLeft},
		{KeyEvent{Name: "Right"}, CmdRight},
		{KeyEvent{Name: "a"}, CmdNone},
	}
	for _, tt := range tests {
		if got := km.Lookup(tt.ev); got != tt.want {
			t.Errorf("Lookup(%+v) = %v, want %v", tt.ev, got, tt.want)
		}
	}
}

func TestNewKeymapInvalidBinding(t *testing.T) {
	keys := config.Default().Keys
	keys.Up = []string{"Meta+k"}

	if _, err := NewKeymap(keys); err == nil {
		t.Error("expected error for unknown modifier")
	}
}
