package rotatelogs

import (
	"compress/gzip"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// rotationEngine performs the rename/shift/compress cascade of §4.3. It is
// invoked by the Emitter only after the lock is already held.
type rotationEngine struct {
	cfg *Config
}

func newRotationEngine(cfg *Config) *rotationEngine {
	return &rotationEngine{cfg: cfg}
}

// rotatingTmpSuffix names the transient, internal-only holding place for
// the just-closed active file while it is gzip-compressed. It is never
// passed through the Namer and never looked up again: it only exists
// between the rename-off-the-active-path step and the compress step of a
// single rotate() call.
const rotatingTmpSuffix = ".rotating.tmp"

// rotate runs the full cascade: shift backups, promote the active file to
// index 1, gzip it if configured, and leave the active path absent so the
// caller's handleManager reopens it. Any I/O error aborts the rotation and
// is reported as a RotationError; gzip-compression failure alone is
// non-fatal (logged, the uncompressed file is left as evidence) per §7.
func (e *rotationEngine) rotate() error {
	cfg := e.cfg

	if cfg.backupCount > 0 {
		if err := e.shiftBackups(); err != nil {
			return RotationError(err)
		}
	} else {
		// backup_count == 0: the former active file is discarded rather
		// than renamed, per the boundary behavior in §8.
		if err := removeIfExists(cfg.path); err != nil {
			return RotationError(errors.Wrap(err, "remove active file with backup_count=0"))
		}
		return nil
	}

	if !cfg.useGzip {
		target := e.finalName(1, false)
		if err := os.Rename(cfg.path, target); err != nil {
			if os.IsNotExist(err) {
				// §4.3 step 4: another writer raced us and already
				// rotated; our own re-check under lock said rotation was
				// still due (e.g. they rotated then wrote a fresh file
				// past the threshold again). Treat the missing source as
				// a no-op.
				return nil
			}
			return RotationError(errors.Wrapf(err, "promote %s to %s", cfg.path, target))
		}
		return nil
	}

	// Gzip is configured: the active file can't be renamed directly to its
	// final namer-applied name, since that name doesn't exist as real
	// content until compression runs. Move it aside to a transient,
	// non-namer'd holding name first.
	tmp := cfg.path + rotatingTmpSuffix
	if err := os.Rename(cfg.path, tmp); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return RotationError(errors.Wrapf(err, "promote %s for compression", cfg.path))
	}
	e.compress(tmp)
	return nil
}

// shiftBackups renames path.i -> path.(i+1) for i from backupCount-1 down
// to 1, after deleting whatever currently occupies index backupCount.
// Grounded on moby/moby's loggerutils rotate(): delete-highest-then-
// rename-down.
func (e *rotationEngine) shiftBackups() error {
	cfg := e.cfg

	var errs error

	highest := e.finalName(cfg.backupCount, cfg.useGzip)
	if err := removeIfExists(highest); err != nil {
		errs = multierr.Append(errs, errors.Wrapf(err, "remove oldest backup %s", highest))
	}

	for i := cfg.backupCount - 1; i >= 1; i-- {
		from := e.finalName(i, cfg.useGzip)
		to := e.finalName(i+1, cfg.useGzip)
		if err := renameIfExists(from, to); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "shift backup %s -> %s", from, to))
		}
	}

	return errs
}

// finalName produces the on-disk name for historical backup index n, with
// the ".gz" suffix (when gzipped is true) already attached before the
// Namer runs. This is the single place both "create" call sites (rotate,
// via compress or the direct rename) and the "look up an existing file"
// call site (shiftBackups, on the next rotation) compute a backup's name,
// so they necessarily agree: the name a pure Namer produced when a file
// was created is exactly the name shiftBackups recomputes to find and
// shift it later. gzipped is passed explicitly (rather than always reading
// cfg.useGzip) so compress's uncompressed-fallback path can still ask for
// the non-.gz form.
func (e *rotationEngine) finalName(n int, gzipped bool) string {
	def := e.cfg.path + "." + strconv.Itoa(n)
	if gzipped {
		def += ".gz"
	}
	return e.applyNamer(def)
}

func (e *rotationEngine) applyNamer(def string) string {
	namer := e.cfg.namer
	if namer == nil {
		namer = DefaultNamer{}
	}
	return namer.Name(def)
}

// compress gzip-compresses tmp (the active file, already moved off its
// namer-applied final name since that name must not exist until
// compression succeeds) into finalName(1, true), then removes tmp.
// Failure is logged and swallowed per §7: tmp is instead renamed to the
// uncompressed index-1 name so it remains discoverable, rather than left
// under its internal temporary name.
func (e *rotationEngine) compress(tmp string) {
	dst := e.finalName(1, true)
	if err := gzipFile(tmp, dst); err != nil {
		e.cfg.internalLog("gzip compression of %s failed, leaving uncompressed: %v", tmp, err)
		fallback := e.finalName(1, false)
		if rerr := os.Rename(tmp, fallback); rerr != nil {
			e.cfg.internalLog("failed to preserve uncompressed rotated file %s: %v", tmp, rerr)
		}
		return
	}
	if err := os.Remove(tmp); err != nil {
		e.cfg.internalLog("failed to remove %s after compression: %v", tmp, err)
	}
}

func gzipFile(src, dst string) (retErr error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { retErr = multierr.Append(retErr, closeErr(in)) }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() { retErr = multierr.Append(retErr, closeErr(out)) }()

	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		return err
	}
	return gw.Close()
}

func closeErr(f *os.File) error {
	if f == nil {
		return nil
	}
	return f.Close()
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func renameIfExists(from, to string) error {
	if _, err := os.Stat(from); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := os.Rename(from, to); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
