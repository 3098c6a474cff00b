package rotatelogs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandles(t *testing.T, path string) *handleManager {
	t.Helper()
	cfg, err := newConfig(path)
	require.NoError(t, err)
	return newHandleManager(cfg)
}

func TestTimeRotatorSecondsBoundary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	handles := newTestHandles(t, path)

	clock := clockwork.NewFakeClock()
	cfg, err := newConfig(path, WithWhen(UnitSeconds), WithInterval(10), WithClock(clock))
	require.NoError(t, err)

	tr, err := newTimeRotator(handles, nil, cfg)
	require.NoError(t, err)

	assert.False(t, tr.ShouldRollover(0))

	clock.Advance(9 * time.Second)
	assert.False(t, tr.ShouldRollover(0))

	clock.Advance(2 * time.Second)
	assert.True(t, tr.ShouldRollover(0))
}

func TestTimeRotatorRolloverDoneAdvancesBoundary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	handles := newTestHandles(t, path)

	clock := clockwork.NewFakeClock()
	cfg, err := newConfig(path, WithWhen(UnitMinutes), WithInterval(1), WithClock(clock))
	require.NoError(t, err)

	tr, err := newTimeRotator(handles, nil, cfg)
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	require.True(t, tr.ShouldRollover(0))
	tr.RolloverDone()
	assert.False(t, tr.ShouldRollover(0))
}

func TestTimeRotatorMidnightBoundary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	handles := newTestHandles(t, path)

	start := time.Date(2026, 7, 29, 23, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	cfg, err := newConfig(path, WithWhen(UnitMidnight), WithUTC(true), WithClock(clock))
	require.NoError(t, err)

	tr, err := newTimeRotator(handles, nil, cfg)
	require.NoError(t, err)

	assert.False(t, tr.ShouldRollover(0))
	clock.Advance(2 * time.Hour)
	assert.True(t, tr.ShouldRollover(0))
}

func TestTimeRotatorWeekdayBoundary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	handles := newTestHandles(t, path)

	// 2026-07-29 is a Wednesday.
	start := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	cfg, err := newConfig(path, WithWhen(UnitWeekday4), WithUTC(true), WithClock(clock))
	require.NoError(t, err)

	tr, err := newTimeRotator(handles, nil, cfg)
	require.NoError(t, err)

	assert.False(t, tr.ShouldRollover(0))
	clock.Advance(48 * time.Hour) // lands on Friday
	assert.True(t, tr.ShouldRollover(0))
}

func TestTimeRotatorCombinedWithSizePolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	handles := newTestHandles(t, path)
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	clock := clockwork.NewFakeClock()
	size := newSizeRotator(handles, 5)
	cfg, err := newConfig(path, WithWhen(UnitHours), WithClock(clock))
	require.NoError(t, err)

	tr, err := newTimeRotator(handles, size, cfg)
	require.NoError(t, err)

	// Time boundary not yet due, but size already exceeds max_bytes.
	assert.True(t, tr.ShouldRollover(1))
}

func TestTimeRotatorAdoptsExternalRollover(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	handles := newTestHandles(t, path)

	clock := clockwork.NewFakeClock()
	cfg, err := newConfig(path, WithWhen(UnitHours), WithClock(clock))
	require.NoError(t, err)

	tr, err := newTimeRotator(handles, nil, cfg)
	require.NoError(t, err)

	// Simulate another process rotating the file: mtime jumps forward,
	// well past our own lastRolloverAt which is anchored to the fake
	// clock's epoch.
	future := clock.Now().Add(30 * time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	tr.adoptExternalRolloverIfNewer()
	assert.Equal(t, future.Local().Truncate(time.Second), tr.lastRolloverAt.Truncate(time.Second))
}
