package ipc

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type recordingHandler struct {
	mu    sync.Mutex
	calls []string
	fail  error
}

func (h *recordingHandler) record(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, name)
	return h.fail
}

func (h *recordingHandler) Show() error   { return h.record(CmdShow) }
func (h *recordingHandler) Hide() error   { return h.record(CmdHide) }
func (h *recordingHandler) Toggle() error { return h.record(CmdToggle) }
func (h *recordingHandler) Reload() error { return h.record(CmdReload) }
func (h *recordingHandler) Quit() error   { return h.record(CmdQuit) }

func (h *recordingHandler) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func startServer(t *testing.T, h Handler) *Server {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "test.sock")
	s := NewServer(socket, h, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { s.Stop() })
	return s
}

func TestServerCommands(t *testing.T) {
	h := &recordingHandler{}
	s := startServer(t, h)

	for _, cmd := range []string{CmdShow, CmdHide, CmdToggle, CmdReload, CmdQuit} {
		reply, err := Send(s.SocketPath(), cmd)
		if err != nil {
			t.Fatalf("Send(%s) failed: %v", cmd, err)
		}
		if reply != "ok" {
			t.Errorf("Send(%s) reply %q, want ok", cmd, reply)
		}
	}

	// The synchronous dispatcher runs each command before replying.
	want := []string{CmdShow, CmdHide, CmdToggle, CmdReload, CmdQuit}
	got := h.Calls()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected calls %v, got %v", want, got)
	}
}

func TestServerPing(t *testing.T) {
	h := &recordingHandler{}
	s := startServer(t, h)

	reply, err := Send(s.SocketPath(), "ping\n")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply != "pong" {
		t.Errorf("expected pong, got %q", reply)
	}
	if len(h.Calls()) != 0 {
		t.Errorf("ping should not reach the handler, got %v", h.Calls())
	}
}

func TestServerUnknownCommand(t *testing.T) {
	s := startServer(t, &recordingHandler{})

	_, err := Send(s.SocketPath(), "launch-rockets")
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestServerHandlerErrorStillAcknowledged(t *testing.T) {
	h := &recordingHandler{fail: errors.New("no window")}
	s := startServer(t, h)

	if _, err := Send(s.SocketPath(), CmdShow); err != nil {
		t.Errorf("handler failures happen after the reply, got %v", err)
	}
}

func TestServerDispatch(t *testing.T) {
	h := &recordingHandler{}
	var queued []func()
	var mu sync.Mutex
	socket := filepath.Join(t.TempDir(), "test.sock")
	s := NewServer(socket, h, func(fn func()) {
		mu.Lock()
		queued = append(queued, fn)
		mu.Unlock()
	})
	if err := s.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer s.Stop()

	if _, err := Send(socket, CmdToggle); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(h.Calls()) != 0 {
		t.Fatal("command ran before being dispatched")
	}

	mu.Lock()
	for _, fn := range queued {
		fn()
	}
	mu.Unlock()

	if got := h.Calls(); len(got) != 1 || got[0] != CmdToggle {
		t.Errorf("expected toggle, got %v", got)
	}
}

func TestServerLifecycle(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "test.sock")
	if err := os.WriteFile(socket, nil, 0600); err != nil {
		t.Fatalf("Failed to create stale socket: %v", err)
	}

	s := NewServer(socket, &recordingHandler{}, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start should replace a stale socket: %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if _, err := os.Stat(socket); !os.IsNotExist(err) {
		t.Error("socket should be removed on stop")
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop should be a no-op, got %v", err)
	}

	if _, err := Send(socket, CmdShow); err == nil {
		t.Error("Send should fail once the server is stopped")
	}
}
