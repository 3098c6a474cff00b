//go:build unix

package rotatelogs

import (
	"os"

	"golang.org/x/sys/unix"
)

// unixLockHandle implements lockHandle using fcntl byte-range locks,
// advisory on POSIX. Grounded on the Flock_t{Type, Whence, Start, Len} +
// FcntlFlock shape used by other_examples' thy00-storage lockfile_unix.go.
type unixLockHandle struct {
	f *os.File
}

// sentinelMode is deliberately world read/write (not narrowed by umask):
// the sentinel is shared infrastructure for a multi-user deployment, not
// log data subject to the configured file-creation policy.
const sentinelMode = 0o666

func openSentinel(path string) (lockHandle, error) {
	// O_CREATE is atomic at the filesystem level, so racing creators
	// across processes are safe (§5).
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, sentinelMode)
	if err != nil {
		return nil, err
	}
	// The sentinel's mode must not be narrowed by the process umask; fix
	// it up explicitly since OpenFile's mode argument is still subject to
	// umask.
	_ = os.Chmod(path, sentinelMode)
	return &unixLockHandle{f: f}, nil
}

func (h *unixLockHandle) valid() bool { return h.f != nil }

func (h *unixLockHandle) lock(blocking bool) error {
	lk := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: int16(os.SEEK_SET),
		Start:  0,
		Len:    1,
	}
	cmd := unix.F_SETLK
	if blocking {
		cmd = unix.F_SETLKW
	}
	for {
		err := unix.FcntlFlock(h.f.Fd(), cmd, &lk)
		if err == nil {
			return nil
		}
		if blocking && err == unix.EINTR {
			continue
		}
		return err
	}
}

func (h *unixLockHandle) unlock() error {
	if h.f == nil {
		return nil
	}
	lk := unix.Flock_t{
		Type:   unix.F_UNLCK,
		Whence: int16(os.SEEK_SET),
		Start:  0,
		Len:    1,
	}
	return unix.FcntlFlock(h.f.Fd(), unix.F_SETLK, &lk)
}

func (h *unixLockHandle) close() {
	if h.f != nil {
		_ = h.f.Close()
		h.f = nil
	}
}

func isWouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EACCES
}
