package rotatelogs

import "github.com/jonboulle/clockwork"

// Clock is re-exported so callers configuring WithClock don't need their
// own import of clockwork to construct one.
type Clock = clockwork.Clock

// NewRealClock returns the production Clock, backed by the OS wall clock.
func NewRealClock() Clock { return clockwork.NewRealClock() }

// NewFakeClock returns a Clock whose time only advances when told to,
// for deterministic Time-Rotator tests.
func NewFakeClock() clockwork.FakeClock { return clockwork.NewFakeClock() }
