package rotatelogs

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// FileMode is the subset of os.FileMode config needs; kept as an alias so
// callers don't need to import "os" just to pass a mode.
type FileMode = os.FileMode

// OpenMode selects the behavior of the very first open of path.
type OpenMode int

const (
	// ModeAppend opens (or creates) path and appends. Subsequent reopens
	// are always append, regardless of OpenMode.
	ModeAppend OpenMode = iota
	// ModeWrite truncates path on the very first open only.
	ModeWrite
)

// UnicodeErrorPolicy controls what happens when a record contains
// characters unrepresentable in Config.Encoding.
type UnicodeErrorPolicy int

const (
	// PolicyIgnore silently drops unmappable characters. This is the
	// default, matching existing behavior of the handler this module
	// descends from.
	PolicyIgnore UnicodeErrorPolicy = iota
	// PolicyStrict aborts the emit with an EncodingError; the record is
	// not written.
	PolicyStrict
	// PolicyReplace substitutes the target encoding's replacement
	// character for unmappable characters.
	PolicyReplace
)

// Owner is an optional (uid, gid) pair applied to newly created files on
// POSIX. It has no effect on Windows.
type Owner struct {
	UID int
	GID int
}

// Config holds the immutable-after-construction configuration of a Handler.
// Construct it through New, which validates it and applies every With*
// option below.
type Config struct {
	path     string
	openMode OpenMode

	maxBytes    int64
	backupCount int

	encoding           string
	unicodeErrorPolicy UnicodeErrorPolicy

	useGzip bool

	owner *Owner
	chmod *FileMode
	umask *int

	delay         bool
	newline       []byte
	terminator    []byte
	terminatorSet bool
	namer         Namer
	lockDir       string
	keepFileOpen  bool
	errorHandler  func(error)
	internalLog   func(format string, args ...interface{})

	when     TimeUnit
	interval int
	utc      bool
	atTime   *time.Duration

	clock clockwork.Clock
}

// Option configures a Config. Options are applied in New, in the order
// passed, after the built-in defaults below are seeded.
type Option func(*Config)

func defaultTerminator() []byte {
	if runtime.GOOS == "windows" {
		return []byte("\r\n")
	}
	return []byte("\n")
}

// newConfig validates path and opts and returns an immutable Config.
// ConfigurationError is the only error kind newConfig can return.
func newConfig(path string, opts ...Option) (*Config, error) {
	if path == "" {
		return nil, ConfigurationError(errors.New("path must not be empty"))
	}

	cfg := &Config{
		path:               path,
		openMode:           ModeAppend,
		encoding:           "utf-8",
		unicodeErrorPolicy: PolicyIgnore,
		backupCount:        0,
		terminator:         defaultTerminator(),
		keepFileOpen:       true,
		namer:              DefaultNamer{},
		clock:              clockwork.NewRealClock(),
		internalLog:        defaultInternalLog,
		when:               "",
		interval:           1,
	}

	for _, o := range opts {
		o(cfg)
	}

	if cfg.maxBytes < 0 {
		return nil, ConfigurationError(errors.New("max_bytes must be non-negative"))
	}
	if cfg.backupCount < 0 {
		return nil, ConfigurationError(errors.New("backup_count must be non-negative"))
	}
	if cfg.newline != nil {
		if cfg.terminatorSet && string(cfg.newline) != string(cfg.terminator) {
			return nil, ConfigurationError(errors.New("newline and terminator conflict; set only one"))
		}
		// newline is this module's name for the same knob Python's logging
		// handlers call "terminator"; absent an explicit WithTerminator, it
		// wins.
		cfg.terminator = cfg.newline
	}
	if cfg.when != "" {
		if _, err := nextBoundaryUnit(cfg.when); err != nil {
			return nil, ConfigurationError(err)
		}
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			return nil, ConfigurationError(errors.Errorf("log directory %q does not exist", dir))
		}
	}
	if cfg.lockDir != "" {
		if fi, err := os.Stat(cfg.lockDir); err != nil || !fi.IsDir() {
			return nil, ConfigurationError(errors.Errorf("lock_file_directory %q does not exist", cfg.lockDir))
		}
	}

	return cfg, nil
}

func defaultInternalLog(format string, args ...interface{}) {
	// Matches the teacher's own fmt.Fprintf(os.Stderr, ...) texture for
	// internal diagnostics rather than pulling in a structured logger for
	// two lines of output.
	fmt.Fprintf(os.Stderr, "concurrent-log-handler: "+format+"\n", args...)
}

// WithOpenMode selects append (default) or write (truncate on first open).
func WithOpenMode(m OpenMode) Option { return func(c *Config) { c.openMode = m } }

// WithMaxBytes sets the size-rotation threshold; 0 disables size rotation.
func WithMaxBytes(n int64) Option { return func(c *Config) { c.maxBytes = n } }

// WithBackupCount sets how many historical files are retained.
func WithBackupCount(n int) Option { return func(c *Config) { c.backupCount = n } }

// WithEncoding sets the record encoding (IANA name, e.g. "utf-8", "latin1").
func WithEncoding(name string) Option { return func(c *Config) { c.encoding = name } }

// WithUnicodeErrorPolicy sets the strict/ignore/replace policy.
func WithUnicodeErrorPolicy(p UnicodeErrorPolicy) Option {
	return func(c *Config) { c.unicodeErrorPolicy = p }
}

// WithGzip compresses rotated files (other than the live rename target).
func WithGzip(enabled bool) Option { return func(c *Config) { c.useGzip = enabled } }

// WithOwner applies uid/gid to newly created files on POSIX.
func WithOwner(uid, gid int) Option { return func(c *Config) { c.owner = &Owner{UID: uid, GID: gid} } }

// WithChmod applies mode to newly created files on POSIX.
func WithChmod(mode FileMode) Option { return func(c *Config) { c.chmod = &mode } }

// WithUmask overrides the process umask during file creation on POSIX.
func WithUmask(mask int) Option { return func(c *Config) { c.umask = &mask } }

// WithDelay defers the first open until the first Emit.
func WithDelay(enabled bool) Option { return func(c *Config) { c.delay = enabled } }

// WithNewline sets the record terminator under its other name. It replaces
// the platform default, and New rejects it if WithTerminator is also given
// with a different value.
func WithNewline(nl string) Option { return func(c *Config) { c.newline = []byte(nl) } }

// WithTerminator sets the record terminator bytes appended after every
// write, overriding the platform default.
func WithTerminator(term string) Option {
	return func(c *Config) { c.terminator = []byte(term); c.terminatorSet = true }
}

// WithNamer installs a custom backup-name rewriter.
func WithNamer(n Namer) Option { return func(c *Config) { c.namer = n } }

// WithLockFileDirectory places the lock sentinel in dir instead of beside
// the log file.
func WithLockFileDirectory(dir string) Option { return func(c *Config) { c.lockDir = dir } }

// WithKeepFileOpen controls whether handles persist between emits.
func WithKeepFileOpen(enabled bool) Option { return func(c *Config) { c.keepFileOpen = enabled } }

// WithErrorHandler registers a hook invoked (instead of returning the error
// from Emit) for every non-construction error.
func WithErrorHandler(h func(error)) Option { return func(c *Config) { c.errorHandler = h } }

// WithInternalLogger overrides where swallowed internal diagnostics
// (release failures, gzip failures) are reported.
func WithInternalLogger(log func(format string, args ...interface{})) Option {
	return func(c *Config) { c.internalLog = log }
}

// TimeUnit selects the Time-Rotator's boundary unit.
type TimeUnit string

const (
	UnitSeconds  TimeUnit = "S"
	UnitMinutes  TimeUnit = "M"
	UnitHours    TimeUnit = "H"
	UnitDays     TimeUnit = "D"
	UnitMidnight TimeUnit = "midnight"
	// UnitWeekday0..UnitWeekday6 select Monday(0)..Sunday(6), matching
	// Python's logging.handlers.TimedRotatingFileHandler "W0".."W6".
	UnitWeekday0 TimeUnit = "W0"
	UnitWeekday1 TimeUnit = "W1"
	UnitWeekday2 TimeUnit = "W2"
	UnitWeekday3 TimeUnit = "W3"
	UnitWeekday4 TimeUnit = "W4"
	UnitWeekday5 TimeUnit = "W5"
	UnitWeekday6 TimeUnit = "W6"
)

// WithWhen enables time-based rotation on the given unit.
func WithWhen(when TimeUnit) Option { return func(c *Config) { c.when = when } }

// WithInterval sets the multiplier applied to When for the fixed-period
// units (S, M, H, D). Ignored for weekday/midnight boundaries.
func WithInterval(n int) Option { return func(c *Config) { c.interval = n } }

// WithUTC selects UTC (true) or local time (false, default) for boundary
// computation.
func WithUTC(enabled bool) Option { return func(c *Config) { c.utc = enabled } }

// WithAtTime anchors midnight/weekday rotation at a specific time-of-day
// offset instead of 00:00:00.
func WithAtTime(d time.Duration) Option { return func(c *Config) { c.atTime = &d } }

// WithClock overrides the Clock used by the Time-Rotator. Intended for
// tests; production code should leave this unset.
func WithClock(c2 Clock) Option { return func(c *Config) { c.clock = c2 } }
