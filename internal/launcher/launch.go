package launcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joshuarubin/go-sway"

	"github.com/keis/shell-search/internal/apps"
	"github.com/keis/shell-search/internal/config"
)

var ErrLaunchFailed = errors.New("launch failed")

// LaunchContext carries what the display knows about the launch: extra
// environment such as DISPLAY or WAYLAND_DISPLAY, and an optional startup
// notification id.
type LaunchContext struct {
	Env       []string
	StartupID string
}

var startupSeq atomic.Uint64

// NewStartupID returns a startup notification id for launching appID, in the
// "<prog>-<pid>-<app>-<seq>_TIME<ms>" form GLib uses. Compositors read the
// timestamp after _TIME to decide whether the new window may take focus.
func NewStartupID(appID string, now time.Time) string {
	name := strings.TrimSuffix(appID, ".desktop")
	name = strings.Map(func(r rune) rune {
		if r <= ' ' || r == '_' {
			return '-'
		}
		return r
	}, name)
	return fmt.Sprintf("shell-search-%d-%s-%d_TIME%d", os.Getpid(), name, startupSeq.Add(1), now.UnixMilli())
}

func (c *LaunchContext) environ(base []string) []string {
	env := removeEnv(base, "LD_PRELOAD")
	if c == nil {
		return env
	}
	for _, kv := range c.Env {
		if key, _, ok := strings.Cut(kv, "="); ok {
			env = removeEnv(env, key)
		}
		env = append(env, kv)
	}
	if c.StartupID != "" {
		env = removeEnv(env, "DESKTOP_STARTUP_ID")
		env = removeEnv(env, "XDG_ACTIVATION_TOKEN")
		env = append(env, "DESKTOP_STARTUP_ID="+c.StartupID, "XDG_ACTIVATION_TOKEN="+c.StartupID)
	}
	return env
}

func removeEnv(env []string, key string) []string {
	prefix := key + "="
	out := env[:0:0]
	for _, e := range env {
		if !strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// Runner starts applications.
type Runner interface {
	LaunchApp(app *apps.App, ctx *LaunchContext) error
	LaunchAction(app *apps.App, action *apps.Action, ctx *LaunchContext) error
}

// NewRunner returns the runner for the configured backend.
func NewRunner(cfg config.LaunchConfig) (Runner, error) {
	terminal := strings.Fields(cfg.Terminal)
	switch cfg.Backend {
	case "", "direct":
		return &directRunner{terminal: terminal}, nil
	case "sway":
		return &swayRunner{terminal: terminal, timeout: 2 * time.Second}, nil
	}
	return nil, fmt.Errorf("unknown launch backend %q", cfg.Backend)
}

// commandFor builds argv for exec, wrapped in the terminal for
// Terminal=true entries.
func commandFor(app *apps.App, execLine string, terminal []string) ([]string, error) {
	argv, err := apps.CommandLine(app, execLine, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", app.ID, err)
	}
	if app.Terminal {
		if len(terminal) == 0 {
			return nil, fmt.Errorf("%s: %w: no terminal configured", app.ID, ErrLaunchFailed)
		}
		argv = append(append([]string(nil), terminal...), argv...)
	}
	return argv, nil
}

func actionExec(app *apps.App, action *apps.Action) (string, error) {
	if action == nil {
		return "", fmt.Errorf("%s: %w", app.ID, apps.ErrUnknownAction)
	}
	if action.Exec == "" {
		return "", fmt.Errorf("%s action %s: %w", app.ID, action.ID, apps.ErrNoExec)
	}
	return action.Exec, nil
}

type directRunner struct {
	terminal []string
}

func (r *directRunner) LaunchApp(app *apps.App, ctx *LaunchContext) error {
	return r.spawn(app, app.Exec, ctx)
}

func (r *directRunner) LaunchAction(app *apps.App, action *apps.Action, ctx *LaunchContext) error {
	execLine, err := actionExec(app, action)
	if err != nil {
		return err
	}
	return r.spawn(app, execLine, ctx)
}

func (r *directRunner) spawn(app *apps.App, execLine string, ctx *LaunchContext) error {
	argv, err := commandFor(app, execLine, r.terminal)
	if err != nil {
		return err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Env = ctx.environ(os.Environ())
	if app.Path != "" {
		cmd.Dir = app.Path
		cmd.Env = append(removeEnv(cmd.Env, "PWD"), "PWD="+app.Path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLaunchFailed, app.ID, err)
	}
	log.Printf("[LAUNCH] Started %s (pid %d): %s", app.ID, cmd.Process.Pid, strings.Join(argv, " "))

	// Reap the child so it does not linger as a zombie while we stay resident.
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

// swayRunner asks sway to exec the command, so the app becomes a child of
// the compositor rather than of the launcher.
type swayRunner struct {
	terminal []string
	timeout  time.Duration
}

func (r *swayRunner) LaunchApp(app *apps.App, ctx *LaunchContext) error {
	return r.run(app, app.Exec, ctx)
}

func (r *swayRunner) LaunchAction(app *apps.App, action *apps.Action, ctx *LaunchContext) error {
	execLine, err := actionExec(app, action)
	if err != nil {
		return err
	}
	return r.run(app, execLine, ctx)
}

func (r *swayRunner) run(app *apps.App, execLine string, lctx *LaunchContext) error {
	argv, err := commandFor(app, execLine, r.terminal)
	if err != nil {
		return err
	}
	command := swayExecCommand(app, argv, lctx)

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	client, err := sway.New(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s: connect to sway: %v", ErrLaunchFailed, app.ID, err)
	}
	replies, err := client.RunCommand(ctx, command)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLaunchFailed, app.ID, err)
	}
	for _, reply := range replies {
		if !reply.Success {
			return fmt.Errorf("%w: %s: sway: %s", ErrLaunchFailed, app.ID, reply.Error)
		}
	}
	log.Printf("[LAUNCH] sway %s", command)
	return nil
}

// swayExecCommand renders argv as a sway exec command. sway runs it through
// sh -c, so the working directory and startup id are set in the shell.
func swayExecCommand(app *apps.App, argv []string, lctx *LaunchContext) string {
	var b strings.Builder
	b.WriteString("exec ")
	if app.Path != "" {
		b.WriteString("cd " + apps.ShellQuote([]string{app.Path}) + " && ")
	}
	if lctx != nil && lctx.StartupID != "" {
		b.WriteString("env " + apps.ShellQuote([]string{"DESKTOP_STARTUP_ID=" + lctx.StartupID}) + " ")
	}
	b.WriteString(apps.ShellQuote(argv))
	return b.String()
}
