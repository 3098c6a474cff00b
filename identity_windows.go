//go:build windows

package rotatelogs

import (
	"os"

	"golang.org/x/sys/windows"
)

// fileIdentity is the file-index triple Windows uses in place of POSIX
// device+inode to detect that path has been replaced out from under a
// held handle.
type fileIdentity struct {
	volumeSerial uint32
	indexHigh    uint32
	indexLow     uint32
}

func identityFromHandle(h windows.Handle) (fileIdentity, error) {
	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(h, &info); err != nil {
		return fileIdentity{}, err
	}
	return fileIdentity{
		volumeSerial: info.VolumeSerialNumber,
		indexHigh:    info.FileIndexHigh,
		indexLow:     info.FileIndexLow,
	}, nil
}

func statIdentity(path string) (fileIdentity, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return fileIdentity{}, err
	}
	h, err := windows.CreateFile(p, windows.GENERIC_READ, windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil, windows.OPEN_EXISTING, windows.FILE_FLAG_BACKUP_SEMANTICS, 0)
	if err != nil {
		return fileIdentity{}, err
	}
	defer windows.CloseHandle(h)
	return identityFromHandle(h)
}

func fstatIdentity(f *os.File) (fileIdentity, error) {
	return identityFromHandle(windows.Handle(f.Fd()))
}

func (a fileIdentity) equal(b fileIdentity) bool {
	return a.volumeSerial == b.volumeSerial && a.indexHigh == b.indexHigh && a.indexLow == b.indexLow
}

func applyOwner(f *os.File, owner *Owner) error {
	// Owner (uid/gid) is a POSIX concept; Windows ACLs are out of scope.
	return nil
}
