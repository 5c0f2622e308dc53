package ipc

import (
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// Send delivers message to the instance listening on socketPath and returns
// its reply.
func Send(socketPath, message string) (string, error) {
	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", socketPath, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := conn.Write([]byte(message)); err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		uc.CloseWrite()
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("failed to read reply: %w", err)
	}

	text := strings.TrimSpace(string(reply))
	if msg, ok := strings.CutPrefix(text, "error: "); ok {
		return "", fmt.Errorf("%s", msg)
	}
	return text, nil
}
