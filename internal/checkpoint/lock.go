package checkpoint

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

// Acquire takes an exclusive PID lock next to the checkpoint file.
// Running two crawl drivers against one checkpoint is unsupported; the
// lock turns that contract into an error instead of silent corruption.
// A lock left behind by a dead process is broken automatically.
func (f *File) Acquire() error {
	lockPath := f.lockPath()
	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, werr := fmt.Fprintf(file, "%d\n", os.Getpid())
			cerr := file.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(lockPath)
				return fmt.Errorf("write lock %s: %w", lockPath, firstErr(werr, cerr))
			}
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("create lock %s: %w", lockPath, err)
		}

		holder, readErr := readLockPID(lockPath)
		if readErr == nil && processAlive(holder) {
			return fmt.Errorf("%w: pid %d holds %s", errLocked, holder, lockPath)
		}

		// Holder is gone (or the lock is unreadable garbage); break it.
		f.logger.Warn("breaking stale checkpoint lock",
			zap.String("path", lockPath),
			zap.Int("holder_pid", holder),
		)
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale lock %s: %w", lockPath, err)
		}
	}
	return fmt.Errorf("%w: could not acquire %s", errLocked, lockPath)
}

// Release drops the PID lock. Safe to call when no lock is held.
func (f *File) Release() error {
	if err := os.Remove(f.lockPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock: %w", err)
	}
	return nil
}

func (f *File) lockPath() string {
	return f.path + ".lock"
}

func readLockPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse lock pid: %w", err)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
