package rotatelogs

import (
	"os"

	"github.com/pkg/errors"
)

// handleManager owns the active log file descriptor: opening it (applying
// chmod/owner/umask on creation), caching its identity, detecting
// staleness, and closing it per the keep_file_open policy.
type handleManager struct {
	cfg *Config

	f          *os.File
	identity   fileIdentity
	haveID     bool
	everOpened bool
}

func newHandleManager(cfg *Config) *handleManager {
	return &handleManager{cfg: cfg}
}

// ensureOpen opens the file if it isn't already, or re-validates and
// reopens it if the on-disk identity no longer matches the held handle
// (another writer rotated the file out from under us).
func (m *handleManager) ensureOpen() error {
	if m.f == nil {
		return m.open()
	}

	current, err := statIdentity(m.cfg.path)
	if err != nil {
		if os.IsNotExist(err) {
			// Rotated away and not yet recreated by anyone; recreate it.
			m.closeHandle()
			return m.open()
		}
		return IoError(errors.Wrapf(err, "stat %s", m.cfg.path))
	}
	if m.haveID && !m.identity.equal(current) {
		m.closeHandle()
		return m.open()
	}
	return nil
}

func (m *handleManager) open() error {
	preexisting := true
	if _, err := os.Stat(m.cfg.path); os.IsNotExist(err) {
		preexisting = false
	}

	flag := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if m.cfg.openMode == ModeWrite && !m.everOpened {
		flag |= os.O_TRUNC
	}

	mode := os.FileMode(0o644)
	if m.cfg.chmod != nil {
		mode = *m.cfg.chmod
	}

	restoreUmask := applyUmask(m.cfg.umask)
	f, err := os.OpenFile(m.cfg.path, flag, mode)
	restoreUmask()
	if err != nil {
		return IoError(errors.Wrapf(err, "open %s", m.cfg.path))
	}

	// chmod/owner are a creation-time policy (§3, §4.2): applied only to
	// newly-created files, not reapplied to a file that already existed.
	if !preexisting {
		_ = applyOwner(f, m.cfg.owner)
		if m.cfg.chmod != nil {
			_ = f.Chmod(*m.cfg.chmod)
		}
	}

	id, err := fstatIdentity(f)
	if err != nil {
		_ = f.Close()
		return IoError(errors.Wrapf(err, "stat handle %s", m.cfg.path))
	}

	m.f = f
	m.identity = id
	m.haveID = true
	m.everOpened = true
	return nil
}

// closeHandle closes the current handle without clearing everOpened, so a
// subsequent reopen after rotation is always append-mode per §3 "subsequent
// reopens are always append".
func (m *handleManager) closeHandle() {
	if m.f != nil {
		_ = m.f.Close()
		m.f = nil
	}
	m.haveID = false
}

func (m *handleManager) write(p []byte) error {
	if _, err := m.f.Write(p); err != nil {
		return IoError(errors.Wrapf(err, "write %s", m.cfg.path))
	}
	return nil
}

// flush is step 6 of the emit protocol. os.File.Write already delivers
// bytes to the OS as soon as it returns (there is no userspace buffering
// layer in front of it), so there is nothing left to push down; per §4.6
// this deliberately does not call fsync, since an fsync-class durability
// guarantee is explicitly not promised by the core.
func (m *handleManager) flush() error {
	return nil
}

func (m *handleManager) size() (int64, error) {
	fi, err := os.Stat(m.cfg.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, IoError(errors.Wrapf(err, "stat %s", m.cfg.path))
	}
	return fi.Size(), nil
}

func (m *handleManager) modTime() (int64, error) {
	fi, err := os.Stat(m.cfg.path)
	if err != nil {
		return 0, err
	}
	return fi.ModTime().UnixNano(), nil
}
