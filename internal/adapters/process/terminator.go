package process

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bnema/voicepool/internal/ports"
	"golang.org/x/sys/unix"
)

const initPID = 1

var containerMarkers = []string{"/.dockerenv", "/run/.containerenv"}

// Terminator sends SIGTERM to a target process so the supervisor of the
// whole deployment restarts it.
type Terminator struct {
	pid    int
	kill   func(pid int, sig unix.Signal) error
	logger *slog.Logger
}

var _ ports.Terminator = (*Terminator)(nil)

// NewTerminator targets pid; zero selects the container init process when
// this process runs directly under it, otherwise the process itself.
func NewTerminator(pid int, logger *slog.Logger) *Terminator {
	if logger == nil {
		logger = slog.Default()
	}
	if pid <= 0 {
		pid = autoTarget(os.Getpid(), os.Getppid(), fileExists)
	}
	return &Terminator{pid: pid, kill: unix.Kill, logger: logger.With("component", "terminator")}
}

func (t *Terminator) PID() int {
	return t.pid
}

func (t *Terminator) Terminate() error {
	t.logger.Warn("sending SIGTERM", "pid", t.pid)
	if err := t.kill(t.pid, unix.SIGTERM); err != nil {
		return fmt.Errorf("signal pid %d: %w", t.pid, err)
	}
	return nil
}

func autoTarget(self, parent int, exists func(string) bool) int {
	if parent != initPID {
		return self
	}
	for _, marker := range containerMarkers {
		if exists(marker) {
			return initPID
		}
	}
	return self
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
