package rotatelogs

import (
	"time"

	"github.com/pkg/errors"
)

// timeRotator implements the Time-Rotator policy of §4.5: rollover is due
// once now() reaches next_rollover_at, optionally combined with the
// Size-Rotator's check when max_bytes is also configured.
type timeRotator struct {
	handles *handleManager
	clock   Clock

	when     TimeUnit
	interval int
	utc      bool
	atTime   *time.Duration

	size *sizeRotator // nil unless max_bytes>0 too

	lastRolloverAt time.Time
	nextRolloverAt time.Time
}

func newTimeRotator(handles *handleManager, size *sizeRotator, cfg *Config) (*timeRotator, error) {
	if _, err := nextBoundaryUnit(cfg.when); err != nil {
		return nil, err
	}
	t := &timeRotator{
		handles:  handles,
		clock:    cfg.clock,
		when:     cfg.when,
		interval: cfg.interval,
		utc:      cfg.utc,
		atTime:   cfg.atTime,
		size:     size,
	}
	t.lastRolloverAt = t.now()
	t.nextRolloverAt = t.computeNext(t.lastRolloverAt)
	return t, nil
}

func (t *timeRotator) now() time.Time {
	n := t.clock.Now()
	if t.utc {
		return n.UTC()
	}
	return n.Local()
}

// ShouldRollover implements Policy.
func (t *timeRotator) ShouldRollover(recordLen int) bool {
	t.adoptExternalRolloverIfNewer()

	now := t.now()
	if now.Before(t.nextRolloverAt) {
		if t.size != nil {
			return t.size.ShouldRollover(recordLen)
		}
		return false
	}
	return true
}

// RolloverDone implements Policy: advance next_rollover_at to the next
// boundary strictly after now().
func (t *timeRotator) RolloverDone() {
	t.lastRolloverAt = t.now()
	t.nextRolloverAt = t.computeNext(t.lastRolloverAt)
	if t.size != nil {
		t.size.RolloverDone()
	}
}

// adoptExternalRolloverIfNewer is the cross-process coordination mechanism
// of §4.5: if the active file's mtime is newer than the last rollover we
// ourselves performed, some other writer already crossed this boundary and
// rotated. We adopt their timestamp and recompute our own next_rollover_at
// from it instead of rotating again.
func (t *timeRotator) adoptExternalRolloverIfNewer() {
	nanos, err := t.handles.modTime()
	if err != nil {
		return
	}
	mtime := time.Unix(0, nanos)
	if t.utc {
		mtime = mtime.UTC()
	} else {
		mtime = mtime.Local()
	}
	if mtime.After(t.lastRolloverAt) {
		t.lastRolloverAt = mtime
		t.nextRolloverAt = t.computeNext(mtime)
	}
}

// computeNext returns the next rollover instant strictly after from.
func (t *timeRotator) computeNext(from time.Time) time.Time {
	switch t.when {
	case UnitSeconds:
		return from.Add(time.Duration(t.interval) * time.Second)
	case UnitMinutes:
		return from.Add(time.Duration(t.interval) * time.Minute)
	case UnitHours:
		return from.Add(time.Duration(t.interval) * time.Hour)
	case UnitDays:
		return from.AddDate(0, 0, t.interval)
	case UnitMidnight:
		return t.nextMidnight(from)
	default:
		if wd, ok := parseWeekday(t.when); ok {
			return t.nextWeekday(from, wd)
		}
		// Unreachable: nextBoundaryUnit validates this at construction.
		return from.Add(24 * time.Hour)
	}
}

func (t *timeRotator) anchorOffset() time.Duration {
	if t.atTime != nil {
		return *t.atTime
	}
	return 0
}

func (t *timeRotator) nextMidnight(from time.Time) time.Time {
	offset := t.anchorOffset()
	anchor := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location()).Add(offset)
	if !anchor.After(from) {
		anchor = anchor.AddDate(0, 0, 1)
	}
	return anchor
}

func (t *timeRotator) nextWeekday(from time.Time, target time.Weekday) time.Time {
	offset := t.anchorOffset()
	anchor := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location()).Add(offset)
	daysAhead := (int(target) - int(anchor.Weekday()) + 7) % 7
	anchor = anchor.AddDate(0, 0, daysAhead)
	if !anchor.After(from) {
		anchor = anchor.AddDate(0, 0, 7)
	}
	return anchor
}

// parseWeekday maps "W0".."W6" to time.Weekday, following Python's
// logging.handlers.TimedRotatingFileHandler convention where W0 is Monday.
func parseWeekday(u TimeUnit) (time.Weekday, bool) {
	switch u {
	case UnitWeekday0:
		return time.Monday, true
	case UnitWeekday1:
		return time.Tuesday, true
	case UnitWeekday2:
		return time.Wednesday, true
	case UnitWeekday3:
		return time.Thursday, true
	case UnitWeekday4:
		return time.Friday, true
	case UnitWeekday5:
		return time.Saturday, true
	case UnitWeekday6:
		return time.Sunday, true
	default:
		return 0, false
	}
}

// nextBoundaryUnit validates when against the known units, returning a
// zero value alongside a ConfigurationError-worthy error for unknown ones.
// It exists so Config validation (construction time) and timeRotator
// construction share one source of truth for "is this a real unit".
func nextBoundaryUnit(when TimeUnit) (TimeUnit, error) {
	switch when {
	case UnitSeconds, UnitMinutes, UnitHours, UnitDays, UnitMidnight:
		return when, nil
	}
	if _, ok := parseWeekday(when); ok {
		return when, nil
	}
	return "", errors.Errorf("unknown rotation unit %q", when)
}
