//go:build unix

package rotatelogs

import "golang.org/x/sys/unix"

// applyUmask temporarily overrides the process umask for the duration of a
// single file creation, returning a function that restores the previous
// value. A nil mask is a no-op.
func applyUmask(mask *int) func() {
	if mask == nil {
		return func() {}
	}
	old := unix.Umask(*mask)
	return func() { unix.Umask(old) }
}
