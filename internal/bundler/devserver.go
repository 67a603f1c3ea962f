package bundler

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Readiness and shutdown bounds for the dev-server child process.
const (
	defaultReadyTimeout = 30 * time.Second
	defaultStopTimeout  = 5 * time.Second
	defaultDevPort      = 8090
)

// readyMarkers are the stdout substrings that signal the server accepts
// connections.
var readyMarkers = []string{"Waiting on http", "Web is waiting on", "Bundled"}

// DevServer manages the single long-lived dev-server subprocess. All
// operations go through its mutex, so two builds racing to restart the
// server cannot leave it pointing at the wrong project.
type DevServer struct {
	mu       sync.Mutex
	cmd      *exec.Cmd
	location string
	url      string

	// Port the child serves on.
	Port int
	// NewCommand builds the child process for a project location. Kept as
	// a field so tests can substitute a fake.
	NewCommand func(location string, port int) *exec.Cmd
	// ReadyTimeout bounds the wait for a readiness marker; zero uses the
	// default.
	ReadyTimeout time.Duration
	// StopTimeout bounds graceful shutdown before SIGKILL; zero uses the
	// default.
	StopTimeout time.Duration
}

func defaultDevCommand(location string, port int) *exec.Cmd {
	cmd := exec.Command("npx", "expo", "start", "--web", "--port", strconv.Itoa(port))
	cmd.Dir = location
	return cmd
}

// Acquire returns the URL of a dev server serving location, starting or
// restarting the child as needed. A running server is reused only when it
// already serves the same location and forceRestart is false; update
// builds force a restart to clear the bundler cache.
func (s *DevServer) Acquire(ctx context.Context, location string, forceRestart bool) (string, error) {
	if strings.TrimSpace(location) == "" {
		return "", fmt.Errorf("dev server location is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil && s.location == location && !forceRestart {
		return s.url, nil
	}
	if s.cmd != nil {
		if err := s.stopLocked(); err != nil {
			log.Printf("dev server: stop before restart: %v", err)
		}
	}
	return s.startLocked(ctx, location)
}

// Stop terminates the child, if any.
func (s *DevServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *DevServer) startLocked(ctx context.Context, location string) (string, error) {
	port := s.Port
	if port == 0 {
		port = defaultDevPort
	}
	newCommand := s.NewCommand
	if newCommand == nil {
		newCommand = defaultDevCommand
	}
	cmd := newCommand(location, port)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("dev server stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start dev server: %w", err)
	}

	readyTimeout := s.ReadyTimeout
	if readyTimeout <= 0 {
		readyTimeout = defaultReadyTimeout
	}
	if err := awaitReady(ctx, stdout, readyTimeout); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return "", err
	}
	// Keep draining stdout so the child never blocks on a full pipe.
	go func() {
		_, _ = io.Copy(io.Discard, stdout)
	}()

	s.cmd = cmd
	s.location = location
	s.url = fmt.Sprintf("http://localhost:%d", port)
	log.Printf("dev server ready for %s at %s", location, s.url)
	return s.url, nil
}

// awaitReady scans stdout lines for a readiness marker. On timeout the
// caller kills the child.
func awaitReady(ctx context.Context, stdout io.Reader, timeout time.Duration) error {
	found := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := scanner.Text()
			for _, marker := range readyMarkers {
				if strings.Contains(line, marker) {
					close(found)
					return
				}
			}
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-found:
		return nil
	case <-timer.C:
		return fmt.Errorf("dev server not ready after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DevServerAdapter is the live-reload bundling strategy: instead of
// producing a static bundle it points the viewer at the shared dev server.
// Every build forces a restart so the bundler cache never serves a stale
// project.
type DevServerAdapter struct {
	Server *DevServer
}

func (a *DevServerAdapter) Name() string { return "expo-dev-server" }

func (a *DevServerAdapter) Bundle(ctx context.Context, projectDir, outDir string, progress ProgressFunc) error {
	progress.report(20, "starting dev server")
	url, err := a.Server.Acquire(ctx, projectDir, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create bundle dir: %w", err)
	}
	page := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><meta http-equiv="refresh" content="0; url=%s"></head>
<body><a href="%s">Open prototype</a></body>
</html>
`, url, url)
	if err := os.WriteFile(filepath.Join(outDir, "index.html"), []byte(page), 0o644); err != nil {
		return fmt.Errorf("write dev redirect: %w", err)
	}
	progress.report(90, "dev server ready")
	return nil
}

// stopLocked sends SIGTERM and races a SIGKILL fallback.
func (s *DevServer) stopLocked() error {
	if s.cmd == nil {
		return nil
	}
	cmd := s.cmd
	s.cmd = nil
	s.location = ""
	s.url = ""

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil
	}

	stopTimeout := s.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
		return nil
	case <-time.After(stopTimeout):
		_ = cmd.Process.Kill()
		<-done
		return nil
	}
}
