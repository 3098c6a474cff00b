package rotatelogs

// Policy decides whether a rollover is due before a record of recordLen
// bytes is written, and is told when a rollover has actually happened so
// it can re-anchor its internal state (e.g. next_rollover_at).
type Policy interface {
	// ShouldRollover is evaluated once per emit, only after the
	// inter-process lock is held (§4.3 step 1): a writer that was blocked
	// on the lock while another writer rotated sees the fresh file and
	// gets "no rollover needed", which prevents double rotation on a race.
	ShouldRollover(recordLen int) bool
	// RolloverDone is called once a rotation has completed successfully,
	// so the policy can advance any internal state (e.g. next_rollover_at
	// for the Time-Rotator).
	RolloverDone()
}

// noPolicy never triggers a rollover; used when neither max_bytes nor when
// is configured.
type noPolicy struct{}

func (noPolicy) ShouldRollover(int) bool { return false }
func (noPolicy) RolloverDone()           {}
