//go:build unix

package rotatelogs

import (
	"os"

	"golang.org/x/sys/unix"
)

// fileIdentity is the device+inode pair (POSIX) or file-index triple
// (Windows) used to detect that the file at path has been replaced out
// from under a held handle.
type fileIdentity struct {
	dev uint64
	ino uint64
}

func statIdentity(path string) (fileIdentity, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return fileIdentity{}, err
	}
	return fileIdentity{dev: uint64(st.Dev), ino: uint64(st.Ino)}, nil
}

func fstatIdentity(f *os.File) (fileIdentity, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return fileIdentity{}, err
	}
	return fileIdentity{dev: uint64(st.Dev), ino: uint64(st.Ino)}, nil
}

func (a fileIdentity) equal(b fileIdentity) bool {
	return a.dev == b.dev && a.ino == b.ino
}

func applyOwner(f *os.File, owner *Owner) error {
	if owner == nil {
		return nil
	}
	return f.Chown(owner.UID, owner.GID)
}
