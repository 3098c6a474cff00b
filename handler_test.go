package rotatelogs

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerWriteAppendsRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	h, err := New(path)
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Write([]byte("first"))
	require.NoError(t, err)
	_, err = h.Write([]byte("second"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestHandlerSizeRotationRetainsBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	h, err := New(path, WithMaxBytes(10), WithBackupCount(2))
	require.NoError(t, err)
	defer h.Close()

	for i := 0; i < 5; i++ {
		_, err := h.Write([]byte("0123456789"))
		require.NoError(t, err)
	}

	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")
}

func TestHandlerGzipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	h, err := New(path, WithMaxBytes(5), WithBackupCount(1), WithGzip(true))
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Write([]byte("abcdef"))
	require.NoError(t, err)
	_, err = h.Write([]byte("ghijkl"))
	require.NoError(t, err)

	assert.NoFileExists(t, path+".1")
	assert.FileExists(t, path+".1.gz")

	f, err := os.Open(path + ".1.gz")
	require.NoError(t, err)
	defer f.Close()

	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gr.Close()

	content, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Equal(t, "abcdef\n", string(content))
}

func TestHandlerBackupCountZeroDiscardsInsteadOfRenaming(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	h, err := New(path, WithMaxBytes(5), WithBackupCount(0))
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Write([]byte("abcdef"))
	require.NoError(t, err)
	_, err = h.Write([]byte("ghijkl"))
	require.NoError(t, err)

	assert.NoFileExists(t, path+".1")
	assert.FileExists(t, path)
}

func TestHandlerKeepFileOpenFalseClosesBetweenEmits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	h, err := New(path, WithKeepFileOpen(false))
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Write([]byte("one"))
	require.NoError(t, err)
	assert.Nil(t, h.handles.f)

	_, err = h.Write([]byte("two"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

// TestHandlerReentrantEmitDoesNotDeadlock exercises §9's reentrancy
// requirement: an errorHandler invoked from within Emit that itself calls
// Emit again on the same goroutine must not deadlock and must not release
// the inter-process lock until the outermost call finishes.
func TestHandlerReentrantEmitDoesNotDeadlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	var h *Handler
	reentered := false
	h, err := New(path, WithEncoding("latin1"), WithUnicodeErrorPolicy(PolicyStrict),
		WithErrorHandler(func(err error) {
			if !reentered {
				reentered = true
				// Recursive call on the same goroutine while the outer
				// Emit still holds h.inProcess and h.flock.
				_, _ = h.Write([]byte("recovered"))
			}
		}))
	require.NoError(t, err)
	defer h.Close()

	// "€" is unmappable in latin1 under the strict policy, triggering the
	// error handler, which recurses into Write.
	_, err = h.Write([]byte("bad€record"))
	require.NoError(t, err)
	assert.True(t, reentered)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "recovered")
}

func TestHandlerCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	h, err := New(path)
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	_, err = h.Write([]byte("after close"))
	assert.Error(t, err)
}

func TestHandlerDelayDefersFirstOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	h, err := New(path, WithDelay(true))
	require.NoError(t, err)
	defer h.Close()

	assert.NoFileExists(t, path)
	_, err = h.Write([]byte("now it opens"))
	require.NoError(t, err)
	assert.FileExists(t, path)
}
