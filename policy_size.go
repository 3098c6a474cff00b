package rotatelogs

// sizeRotator implements the Size-Rotator policy of §4.4: rollover is due
// iff the next write would cross max_bytes. Current size is always read
// fresh from stat (not tracked with an in-memory accumulator) so that
// externally-replaced files are handled correctly, matching the teacher's
// own "stat, don't accumulate" approach in getWriterNolock.
type sizeRotator struct {
	handles  *handleManager
	maxBytes int64
}

func newSizeRotator(handles *handleManager, maxBytes int64) *sizeRotator {
	return &sizeRotator{handles: handles, maxBytes: maxBytes}
}

// ShouldRollover implements Policy. Per §4.4, the check runs before the
// write, so the final record may push the file over max_bytes — records
// are never truncated to fit.
func (s *sizeRotator) ShouldRollover(recordLen int) bool {
	if s.maxBytes <= 0 {
		return false
	}
	size, err := s.handles.size()
	if err != nil {
		return false
	}
	return size+int64(recordLen) > s.maxBytes
}

func (s *sizeRotator) RolloverDone() {}
