package rotatelogs

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// sentinelPath derives the lock sentinel's path from the configured log
// path and lock directory, following the ".__<basename>.lock" naming from
// the data model.
func sentinelPath(logPath, lockDir string) string {
	base := filepath.Base(logPath)
	name := ".__" + base + ".lock"
	if lockDir != "" {
		return filepath.Join(lockDir, name)
	}
	return filepath.Join(filepath.Dir(logPath), name)
}

// fileLock is the inter-process Lock Primitive of §4.1: an exclusive
// byte-range lock (offset 0, length 1) on a sentinel file, with fork-safety
// and swallow-on-release-failure baked in. Platform-specific acquire/release
// syscalls live in lock_unix.go / lock_windows.go.
type fileLock struct {
	path string

	ownerPID atomic.Int64 // pid that last (re)opened handle; fork-safety check

	handle lockHandle // platform-specific open file / HANDLE
	log    func(format string, args ...interface{})
}

func newFileLock(path string, log func(format string, args ...interface{})) *fileLock {
	l := &fileLock{path: path, log: log}
	l.ownerPID.Store(int64(os.Getpid()))
	return l
}

// acquire blocks until the exclusive byte-range lock is held. If the
// process has forked since the handle was last opened (detected by
// comparing os.Getpid() against the cached owner pid), the sentinel handle
// is reopened first: the child inherits the descriptor but not lock
// ownership, so reusing it silently would be a race.
func (l *fileLock) acquire(blocking bool) error {
	pid := int64(os.Getpid())
	if l.ownerPID.Load() != pid || l.handle == nil || !l.handle.valid() {
		if err := l.reopen(); err != nil {
			if blocking {
				return IoError(err)
			}
			return LockAcquisitionFailed(err)
		}
		l.ownerPID.Store(pid)
	}
	if err := l.handle.lock(blocking); err != nil {
		if !blocking && isWouldBlock(err) {
			return LockAcquisitionFailed(err)
		}
		if blocking {
			return IoError(errors.Wrapf(err, "acquire lock %s", l.path))
		}
		return LockAcquisitionFailed(errors.Wrapf(err, "acquire lock %s", l.path))
	}
	return nil
}

// release unlocks the sentinel. Per §4.1, release never raises to the
// caller: failures are logged internally and swallowed so that a record
// already written is never lost over a lock bookkeeping failure.
func (l *fileLock) release() {
	if err := l.handle.unlock(); err != nil {
		l.log("failed to release lock %s: %v", l.path, err)
	}
}

func (l *fileLock) reopen() error {
	if l.handle != nil {
		l.handle.close()
	}
	h, err := openSentinel(l.path)
	if err != nil {
		return errors.Wrapf(err, "open lock sentinel %s", l.path)
	}
	l.handle = h
	return nil
}

func (l *fileLock) close() {
	if l.handle != nil {
		l.handle.close()
	}
}

// lockHandle abstracts the platform-specific open sentinel + byte-range
// lock operations.
type lockHandle interface {
	valid() bool
	lock(blocking bool) error
	unlock() error
	close()
}
