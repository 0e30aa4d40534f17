package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts srv and blocks until ctx ends or the process is asked to stop.
// A PID file next to the socket marks the daemon as running.
func Run(ctx context.Context, srv *Server, logger *zap.Logger) error {
	pidPath := PidFilePath(srv.SocketPath())
	if running, pid := IsRunning(pidPath); running {
		return fmt.Errorf("daemon is already running (PID: %d)", pid)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	if err := writePidFile(pidPath); err != nil {
		_ = srv.Stop(context.Background())
		return err
	}
	defer os.Remove(pidPath)

	logger.Info("daemon started", zap.Int("pid", os.Getpid()))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// PidFilePath returns the PID file used for the daemon on socketPath
func PidFilePath(socketPath string) string {
	return filepath.Join(filepath.Dir(socketPath), "daemon.pid")
}

// IsRunning checks if a daemon owning pidPath is alive
func IsRunning(pidPath string) (bool, int) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, 0
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}

	if err := process.Signal(syscall.Signal(0)); err != nil {
		// stale
		os.Remove(pidPath)
		return false, 0
	}

	return true, pid
}

// Stop asks a running daemon to exit, killing it if it does not within two seconds
func Stop(pid int, pidPath string) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM: %w", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if err := process.Signal(syscall.Signal(0)); err != nil {
			os.Remove(pidPath)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := process.Kill(); err != nil {
		return fmt.Errorf("failed to kill process: %w", err)
	}
	os.Remove(pidPath)
	return nil
}

func writePidFile(path string) error {
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}
