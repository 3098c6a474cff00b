package rotatelogs

import (
	"go.uber.org/atomic"
	"golang.org/x/text/encoding"
)

// Handler is the public entry point: the per-process owner of the active
// file handle, the lock sentinel, and the rotation policy. Construct one
// per process with New; never share an instance across a process boundary.
type Handler struct {
	cfg *Config

	inProcess *recursiveMutex
	flock     *fileLock
	handles   *handleManager
	rotator   *rotationEngine
	policy    Policy
	enc       encoding.Encoding

	closed atomic.Bool
}

// New constructs a Handler for path. It never opens the file unless delay
// is false (the default); ConfigurationError is the only error kind it can
// return.
func New(path string, opts ...Option) (*Handler, error) {
	cfg, err := newConfig(path, opts...)
	if err != nil {
		return nil, err
	}

	enc, err := lookupEncoding(cfg.encoding)
	if err != nil {
		return nil, ConfigurationError(err)
	}

	handles := newHandleManager(cfg)

	var sizePolicy *sizeRotator
	if cfg.maxBytes > 0 {
		sizePolicy = newSizeRotator(handles, cfg.maxBytes)
	}

	var policy Policy
	switch {
	case cfg.when != "":
		tp, err := newTimeRotator(handles, sizePolicy, cfg)
		if err != nil {
			return nil, ConfigurationError(err)
		}
		policy = tp
	case sizePolicy != nil:
		policy = sizePolicy
	default:
		policy = noPolicy{}
	}

	h := &Handler{
		cfg:       cfg,
		inProcess: newRecursiveMutex(),
		flock:     newFileLock(sentinelPath(cfg.path, cfg.lockDir), cfg.internalLog),
		handles:   handles,
		rotator:   newRotationEngine(cfg),
		policy:    policy,
		enc:       enc,
	}

	if !cfg.delay {
		if err := h.openUnderLock(); err != nil {
			return nil, ConfigurationError(err)
		}
	}

	return h, nil
}

// Write implements io.Writer, treating p as an already-formatted record that
// is encoded into the configured encoding and followed by the configured
// terminator. It is equivalent to Emit(p): on success it reports len(p)
// bytes written, and on failure it returns the same error Emit returns (a
// *HandlerError), for drop-in use as any Go logging framework's sink.
func (h *Handler) Write(p []byte) (int, error) {
	if err := h.Emit(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Emit runs the full protocol of §4.6: acquire the inter-process lock,
// validate/refresh the handle, consult the active rotation policy, rotate
// if due, write the record plus terminator, flush, and release. It
// tolerates being re-entered on the same goroutine (a formatter that
// itself logs), per §9.
func (h *Handler) Emit(record []byte) error {
	if h.closed.Load() {
		return h.report(IoError(errClosed))
	}

	fresh := h.inProcess.lock()
	defer h.inProcess.unlock()

	if fresh {
		// Only the outermost call acquires/releases the inter-process
		// lock; a reentrant call (the record's own formatting logging
		// again on the same goroutine) runs inside the outer call's
		// still-held lock instead of re-acquiring or prematurely
		// releasing it, per §4.6/§9.
		if err := h.flock.acquire(true); err != nil {
			return h.report(err)
		}
		defer h.flock.release()
	}

	return h.emitLocked(record)
}

func (h *Handler) emitLocked(record []byte) error {
	if err := h.handles.ensureOpen(); err != nil {
		return h.report(err)
	}

	total := len(record) + len(h.cfg.terminator)
	if h.policy.ShouldRollover(total) {
		// §4.3 step 2: the active handle must be closed before renaming.
		// Required on Windows, where a still-open handle is opened without
		// FILE_SHARE_DELETE and renaming over it fails with a sharing
		// violation; done unconditionally, including on POSIX, to keep
		// rotation semantics uniform across platforms.
		h.handles.closeHandle()
		if err := h.rotator.rotate(); err != nil {
			// Per §4.3: a rotation error leaves the handler recoverable;
			// handles stay closed here and will reopen on the next emit.
			return h.report(err)
		}
		h.policy.RolloverDone()
		if err := h.handles.ensureOpen(); err != nil {
			return h.report(err)
		}
	}

	encoded, err := encodeRecord(string(record), h.enc, h.cfg.unicodeErrorPolicy)
	if err != nil {
		return h.report(EncodingError(err))
	}

	if err := h.handles.write(encoded); err != nil {
		return h.report(err)
	}
	if len(h.cfg.terminator) > 0 {
		if err := h.handles.write(h.cfg.terminator); err != nil {
			return h.report(err)
		}
	}
	if err := h.handles.flush(); err != nil {
		return h.report(err)
	}

	if !h.cfg.keepFileOpen {
		h.handles.closeHandle()
	}

	return nil
}

func (h *Handler) openUnderLock() error {
	h.inProcess.lock()
	defer h.inProcess.unlock()

	// New() is never reentrant, so this is always a fresh acquisition.
	if err := h.flock.acquire(true); err != nil {
		return err
	}
	defer h.flock.release()

	return h.handles.ensureOpen()
}

// report runs err through the configured error handler hook, if any,
// instead of returning it, matching the "forwarded to the logging
// framework's error observer" language of §7. With no handler configured,
// err is returned to the caller as normal.
func (h *Handler) report(err error) error {
	if err == nil {
		return nil
	}
	if h.cfg.errorHandler != nil {
		h.cfg.errorHandler(err)
		return nil
	}
	return err
}

// Close releases both handles. The lock sentinel itself is never unlinked:
// it is persistent, shared infrastructure (§3 "Lifecycle").
func (h *Handler) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	h.inProcess.lock()
	defer h.inProcess.unlock()

	h.handles.closeHandle()
	h.flock.close()
	return nil
}

// CurrentPath returns the configured active log path.
func (h *Handler) CurrentPath() string { return h.cfg.path }
