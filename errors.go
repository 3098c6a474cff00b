package rotatelogs

import "github.com/pkg/errors"

// errClosed is returned (wrapped as IoError) from Emit/Write once Close
// has been called.
var errClosed = errors.New("handler is closed")

// ErrorKind classifies the errors Emit can return, per the error taxonomy
// the handler exposes to its caller's error-handling hook.
type ErrorKind int

const (
	// KindLockAcquisitionFailed is only produced by non-blocking lock
	// attempts used internally by the rotation engine's coordination path.
	KindLockAcquisitionFailed ErrorKind = iota
	// KindIoError wraps a generic read/write/stat/rename failure.
	KindIoError
	// KindEncodingError marks a record unrepresentable in the configured
	// encoding under the strict policy.
	KindEncodingError
	// KindRotationError marks a failure inside the rotation engine. The
	// handler is left recoverable: handles are closed and will reopen on
	// the next emit.
	KindRotationError
	// KindConfigurationError is only returned from New.
	KindConfigurationError
)

func (k ErrorKind) String() string {
	switch k {
	case KindLockAcquisitionFailed:
		return "lock acquisition failed"
	case KindIoError:
		return "io error"
	case KindEncodingError:
		return "encoding error"
	case KindRotationError:
		return "rotation error"
	case KindConfigurationError:
		return "configuration error"
	default:
		return "unknown error"
	}
}

// HandlerError is the concrete error type surfaced from Emit/Write/New. The
// underlying OS or library error is preserved and reachable with
// errors.Cause or errors.Unwrap.
type HandlerError struct {
	Kind ErrorKind
	err  error
}

func newHandlerError(kind ErrorKind, err error) *HandlerError {
	if err == nil {
		return nil
	}
	return &HandlerError{Kind: kind, err: err}
}

func (e *HandlerError) Error() string {
	return e.Kind.String() + ": " + e.err.Error()
}

func (e *HandlerError) Unwrap() error { return e.err }

// Cause supports github.com/pkg/errors.Cause.
func (e *HandlerError) Cause() error { return e.err }

// LockAcquisitionFailed wraps err as a KindLockAcquisitionFailed HandlerError.
func LockAcquisitionFailed(err error) error {
	return newHandlerError(KindLockAcquisitionFailed, err)
}

// IoError wraps err as a KindIoError HandlerError.
func IoError(err error) error {
	return newHandlerError(KindIoError, err)
}

// EncodingError wraps err as a KindEncodingError HandlerError.
func EncodingError(err error) error {
	return newHandlerError(KindEncodingError, err)
}

// RotationError wraps err as a KindRotationError HandlerError.
func RotationError(err error) error {
	return newHandlerError(KindRotationError, err)
}

// ConfigurationError wraps err as a KindConfigurationError HandlerError.
func ConfigurationError(err error) error {
	return newHandlerError(KindConfigurationError, err)
}

// IsKind reports whether err is a *HandlerError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var he *HandlerError
	if !errors.As(err, &he) {
		return false
	}
	return he.Kind == kind
}
