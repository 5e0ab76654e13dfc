package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/meet-desk/internal/config"
	"github.com/oshokin/meet-desk/internal/logger"
)

// ErrAlreadyRunning is returned when another desk serves the same database.
var ErrAlreadyRunning = errors.New("another desk server is already running")

// acquireInstance writes this process ID to pidPath unless a live process
// of the same executable already owns it. The returned function removes the file.
func acquireInstance(ctx context.Context, pidPath string) (func(), error) {
	if pid, ok := readPID(pidPath); ok && pid != os.Getpid() {
		running, err := sameExecutableRunning(pid)
		if err != nil {
			return nil, fmt.Errorf("inspect process %d: %w", pid, err)
		}

		if running {
			return nil, fmt.Errorf("%w (pid %d, %s)", ErrAlreadyRunning, pid, pidPath)
		}

		logger.InfoKV(ctx, "Removing stale pid file", "pid", pid, "pid_file", pidPath)
	}

	if dir := filepath.Dir(pidPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:mnd // Owner and group.
			return nil, fmt.Errorf("create pid directory: %w", err)
		}
	}

	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(pidPath, []byte(pid+"\n"), config.DefaultFilePermissions); err != nil {
		return nil, fmt.Errorf("write pid file: %w", err)
	}

	return func() {
		if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.WarnKV(ctx, "Failed to remove pid file", "pid_file", pidPath, "error", err)
		}
	}, nil
}

func readPID(path string) (int, bool) {
	content, err := os.ReadFile(path) //nolint:gosec // Path derives from the configured database.
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, true
}

// sameExecutableRunning reports whether pid is alive and runs the same binary as us.
func sameExecutableRunning(pid int) (bool, error) {
	process, err := ps.FindProcess(pid)
	if err != nil {
		return false, err
	}

	if process == nil {
		return false, nil
	}

	self, err := ps.FindProcess(os.Getpid())
	if err != nil || self == nil {
		// Without our own entry only liveness can be judged.
		return true, nil //nolint:nilerr // Liveness is enough.
	}

	return process.Executable() == self.Executable(), nil
}
