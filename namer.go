package rotatelogs

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/pkg/errors"
)

// Namer rewrites the default generated name for a rotated backup file into
// whatever scheme the caller prefers. It must be pure and deterministic: it
// is called from inside the rotation engine, under the inter-process lock,
// and may be called again on retry after a partial failure.
type Namer interface {
	Name(defaultName string) string
}

// DefaultNamer returns defaultName unchanged, preserving the path.N /
// path.N.gz scheme described in the data model.
type DefaultNamer struct{}

// Name implements Namer.
func (DefaultNamer) Name(defaultName string) string { return defaultName }

// namerFunc adapts a plain function to the Namer interface.
type namerFunc func(string) string

func (f namerFunc) Name(defaultName string) string { return f(defaultName) }

// NamerFunc adapts fn to a Namer.
func NamerFunc(fn func(defaultName string) string) Namer { return namerFunc(fn) }

// StrftimeNamer builds a Namer that appends a strftime-formatted timestamp
// suffix after the whole default name (after the numeric index, and after
// ".gz" for compressed backups), for callers who'd rather have
// a human-legible tag than bare indices. The numeric path.N / path.N.gz
// scheme documented in the data model still governs retention and is still
// what the rotation engine counts against backup_count; this only changes
// the string written to disk for each generated name.
//
// The suffix is computed once, at construction, rather than from the wall
// clock on every call: the Namer contract above requires purity, since the
// rotation engine's shiftBackups recomputes a prior rotation's name to find
// and shift it (finalName, in rotate.go) — a namer that read the clock on
// every call could never reproduce a name it had already produced. As a
// result, every file a given Handler rotates carries the timestamp of when
// that Handler (and this namer) was constructed, not the time of each
// individual rotation.
func StrftimeNamer(pattern string) (Namer, error) {
	f, err := strftime.New(pattern)
	if err != nil {
		return nil, errors.Wrap(err, "invalid strftime pattern")
	}
	suffix := f.FormatString(time.Now())
	return namerFunc(func(defaultName string) string {
		return fmt.Sprintf("%s.%s", defaultName, suffix)
	}), nil
}
