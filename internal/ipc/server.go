package ipc

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	CmdShow   = "show"
	CmdHide   = "hide"
	CmdToggle = "toggle"
	CmdReload = "reload"
	CmdQuit   = "quit"
	CmdPing   = "ping"
)

var (
	ErrAlreadyRunning = errors.New("IPC server already running")
	ErrUnknownCommand = errors.New("unknown command")
)

// Handler carries out commands. Its methods run on whatever the dispatch
// function schedules them on, normally the UI loop.
type Handler interface {
	Show() error
	Hide() error
	Toggle() error
	Reload() error
	Quit() error
}

type Server struct {
	socketPath string
	handler    Handler
	dispatch   func(func())

	mu       sync.Mutex
	listener *net.UnixListener
	running  bool
	wg       sync.WaitGroup
}

// NewServer creates a server on socketPath. dispatch hands each command to
// the thread that may touch the UI; nil runs commands on the connection's
// goroutine.
func NewServer(socketPath string, handler Handler, dispatch func(func())) *Server {
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		dispatch:   dispatch,
	}
}

func (s *Server) SocketPath() string { return s.socketPath }

func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	// Remove a stale socket left by a crashed instance
	if _, err := os.Stat(s.socketPath); err == nil {
		os.Remove(s.socketPath)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create socket listener: %w", err)
	}

	s.listener = listener.(*net.UnixListener)
	s.running = true

	log.Printf("[IPC] Listening on %s", s.socketPath)

	s.wg.Add(1)
	go s.acceptConnections(s.listener)

	return nil
}

func (s *Server) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) acceptConnections(listener *net.UnixListener) {
	defer s.wg.Done()

	for {
		conn, err := listener.AcceptUnix()
		if err != nil {
			if !s.isRunning() {
				return
			}
			log.Printf("[IPC] Error accepting connection: %v", err)
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn *net.UnixConn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		log.Printf("[IPC] Error reading from connection: %v", err)
		return
	}

	message := strings.TrimSpace(string(buf[:n]))
	log.Printf("[IPC] Received message: %q", message)

	reply := "ok"
	if err := s.handleMessage(message); err != nil {
		reply = "error: " + err.Error()
	} else if message == CmdPing {
		reply = "pong"
	}

	if _, err := conn.Write([]byte(reply + "\n")); err != nil {
		log.Printf("[IPC] Error writing reply: %v", err)
	}
}

// handleMessage validates message and schedules its command. Failures of the
// command itself are only logged since they happen after the reply.
func (s *Server) handleMessage(message string) error {
	var run func() error
	switch message {
	case CmdShow:
		run = s.handler.Show
	case CmdHide:
		run = s.handler.Hide
	case CmdToggle:
		run = s.handler.Toggle
	case CmdReload:
		run = s.handler.Reload
	case CmdQuit:
		run = s.handler.Quit
	case CmdPing:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, message)
	}

	s.dispatch(func() {
		if err := run(); err != nil {
			log.Printf("[IPC] %s failed: %v", message, err)
		}
	})
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}
	s.wg.Wait()

	if _, err := os.Stat(s.socketPath); err == nil {
		os.Remove(s.socketPath)
	}

	log.Println("[IPC] Server stopped")
	return nil
}
