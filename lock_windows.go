//go:build windows

package rotatelogs

import (
	"os"

	"golang.org/x/sys/windows"
)

// windowsLockHandle implements lockHandle using LockFileEx, mandatory on
// Windows, over the same byte range (offset 0, length 1) used on POSIX.
type windowsLockHandle struct {
	f *os.File
}

const sentinelMode = 0o666

func openSentinel(path string) (lockHandle, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, sentinelMode)
	if err != nil {
		return nil, err
	}
	return &windowsLockHandle{f: f}, nil
}

func (h *windowsLockHandle) valid() bool { return h.f != nil }

func (h *windowsLockHandle) lock(blocking bool) error {
	var flags uint32 = windows.LOCKFILE_EXCLUSIVE_LOCK
	if !blocking {
		flags |= windows.LOCKFILE_FAIL_IMMEDIATELY
	}
	ol := new(windows.Overlapped)
	handle := windows.Handle(h.f.Fd())
	for {
		err := windows.LockFileEx(handle, flags, 0, 1, 0, ol)
		if err == nil {
			return nil
		}
		if !blocking {
			return err
		}
		if err == windows.ERROR_LOCK_VIOLATION {
			continue
		}
		return err
	}
}

func (h *windowsLockHandle) unlock() error {
	if h.f == nil {
		return nil
	}
	ol := new(windows.Overlapped)
	handle := windows.Handle(h.f.Fd())
	return windows.UnlockFileEx(handle, 0, 1, 0, ol)
}

func (h *windowsLockHandle) close() {
	if h.f != nil {
		_ = h.f.Close()
		h.f = nil
	}
}

func isWouldBlock(err error) bool {
	return err == windows.ERROR_LOCK_VIOLATION
}
