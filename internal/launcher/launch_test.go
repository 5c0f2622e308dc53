package launcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/keis/shell-search/internal/apps"
	"github.com/keis/shell-search/internal/config"
)

func TestNewRunner(t *testing.T) {
	if _, err := NewRunner(config.LaunchConfig{Backend: "direct"}); err != nil {
		t.Errorf("direct backend: %v", err)
	}
	if _, err := NewRunner(config.LaunchConfig{Backend: "sway"}); err != nil {
		t.Errorf("sway backend: %v", err)
	}
	if _, err := NewRunner(config.LaunchConfig{Backend: "systemd"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestCommandForTerminal(t *testing.T) {
	app := &apps.App{ID: "htop.desktop", Exec: "htop %F", Terminal: true}

	argv, err := commandFor(app, app.Exec, []string{"foot", "-e"})
	if err != nil {
		t.Fatalf("commandFor failed: %v", err)
	}
	if diff := cmp.Diff([]string{"foot", "-e", "htop"}, argv); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}

	if _, err := commandFor(app, app.Exec, nil); !errors.Is(err, ErrLaunchFailed) {
		t.Errorf("expected ErrLaunchFailed without terminal, got %v", err)
	}
}

func TestLaunchContextEnviron(t *testing.T) {
	base := []string{"PATH=/bin", "DISPLAY=:0", "LD_PRELOAD=libfoo.so"}
	ctx := &LaunchContext{Env: []string{"DISPLAY=:1"}, StartupID: "tok"}

	got := ctx.environ(base)
	want := []string{"PATH=/bin", "DISPLAY=:1", "DESKTOP_STARTUP_ID=tok", "XDG_ACTIVATION_TOKEN=tok"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("environ mismatch (-want +got):\n%s", diff)
	}

	var none *LaunchContext
	if diff := cmp.Diff([]string{"PATH=/bin", "DISPLAY=:0"}, none.environ(base)); diff != "" {
		t.Errorf("nil context environ mismatch (-want +got):\n%s", diff)
	}
}

func TestNewStartupID(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	first := NewStartupID("org.gnome.Files_Beta.desktop", now)
	second := NewStartupID("org.gnome.Files_Beta.desktop", now)

	prefix := fmt.Sprintf("shell-search-%d-org.gnome.Files-Beta-", os.Getpid())
	if !strings.HasPrefix(first, prefix) {
		t.Errorf("expected prefix %q, got %q", prefix, first)
	}
	if !strings.HasSuffix(first, "_TIME1700000000123") {
		t.Errorf("expected timestamp suffix, got %q", first)
	}
	if strings.Count(first, "_") != 1 {
		t.Errorf("app id underscores must not precede _TIME: %q", first)
	}
	if first == second {
		t.Errorf("consecutive ids should differ, both %q", first)
	}

	env := (&LaunchContext{StartupID: first}).environ(nil)
	if diff := cmp.Diff([]string{"DESKTOP_STARTUP_ID=" + first, "XDG_ACTIVATION_TOKEN=" + first}, env); diff != "" {
		t.Errorf("environ mismatch (-want +got):\n%s", diff)
	}
}

func TestSwayExecCommand(t *testing.T) {
	app := &apps.App{ID: "x.desktop", Path: "/home/me/my dir"}

	got := swayExecCommand(app, []string{"editor", "--new window"}, &LaunchContext{StartupID: "id1"})
	want := "exec cd '/home/me/my dir' && env DESKTOP_STARTUP_ID=id1 editor '--new window'"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if got := swayExecCommand(&apps.App{}, []string{"foot"}, nil); got != "exec foot" {
		t.Errorf("expected plain exec, got %q", got)
	}
}

func writeScript(t *testing.T, dir string) string {
	t.Helper()
	script := filepath.Join(dir, "record.sh")
	body := "#!/bin/sh\necho \"$PWD $LAUNCH_TEST $*\" > \"$OUT_FILE.tmp\" && mv \"$OUT_FILE.tmp\" \"$OUT_FILE\"\n"
	if err := os.WriteFile(script, []byte(body), 0755); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}
	return script
}

func waitForFile(t *testing.T, path string) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", path)
	return ""
}

func TestDirectRunnerLaunch(t *testing.T) {
	dir := t.TempDir()
	workDir := t.TempDir()
	script := writeScript(t, dir)
	out := filepath.Join(dir, "out")

	app := &apps.App{
		ID:   "record.desktop",
		Exec: script + " main",
		Path: workDir,
		Actions: []apps.Action{
			{ID: "second", Name: "Second", Exec: script + " action"},
		},
	}
	runner, err := NewRunner(config.LaunchConfig{Backend: "direct"})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	ctx := &LaunchContext{Env: []string{"LAUNCH_TEST=yes", "OUT_FILE=" + out}}

	if err := runner.LaunchApp(app, ctx); err != nil {
		t.Fatalf("LaunchApp failed: %v", err)
	}
	if got := waitForFile(t, out); got != workDir+" yes main" {
		t.Errorf("unexpected app output %q", got)
	}

	os.Remove(out)
	action, err := app.FindAction("second")
	if err != nil {
		t.Fatalf("FindAction failed: %v", err)
	}
	if err := runner.LaunchAction(app, action, ctx); err != nil {
		t.Fatalf("LaunchAction failed: %v", err)
	}
	if got := waitForFile(t, out); got != workDir+" yes action" {
		t.Errorf("unexpected action output %q", got)
	}
}

func TestDirectRunnerErrors(t *testing.T) {
	runner := &directRunner{}

	missing := &apps.App{ID: "missing.desktop", Exec: "/nonexistent/binary"}
	if err := runner.LaunchApp(missing, nil); !errors.Is(err, ErrLaunchFailed) {
		t.Errorf("expected ErrLaunchFailed, got %v", err)
	}

	empty := &apps.App{ID: "empty.desktop"}
	if err := runner.LaunchApp(empty, nil); !errors.Is(err, apps.ErrNoExec) {
		t.Errorf("expected ErrNoExec, got %v", err)
	}

	if err := runner.LaunchAction(empty, nil, nil); !errors.Is(err, apps.ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
	if err := runner.LaunchAction(empty, &apps.Action{ID: "a"}, nil); !errors.Is(err, apps.ErrNoExec) {
		t.Errorf("expected ErrNoExec for action, got %v", err)
	}
}
