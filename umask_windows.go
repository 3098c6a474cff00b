//go:build windows

package rotatelogs

// applyUmask is a no-op on Windows, which has no umask concept; file
// permissions there are governed by ACLs instead.
func applyUmask(mask *int) func() {
	return func() {}
}
