package rotatelogs

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// recursiveMutex is the in-process half of the emit lock (§4.6, §9). A
// plain sync.Mutex deadlocks if a record's own formatting recursively
// triggers another Emit on the same goroutine — the historical "reentrant
// logging from inside a formatter" defect the spec calls out. Go has no
// built-in reentrant mutex, so ownership is tracked by goroutine id,
// recovered the same way other_examples' tessro-fab logging package
// recovers it for diagnostics: parsing the header line of runtime.Stack.
//
// gate is a 1-buffered channel used as a binary semaphore for the actual
// blocking; meta only ever guards the owner/depth bookkeeping, so it is
// never held across a blocking acquire and can't self-deadlock the way
// reusing a single sync.Mutex for both roles would.
type recursiveMutex struct {
	gate chan struct{}
	meta sync.Mutex

	owner int64 // goroutine id currently holding the lock, 0 if unheld
	depth int
}

func newRecursiveMutex() *recursiveMutex {
	m := &recursiveMutex{gate: make(chan struct{}, 1)}
	m.gate <- struct{}{}
	return m
}

// lock acquires the mutex, or re-enters it if the calling goroutine already
// holds it. It reports whether this call made a fresh (non-reentrant)
// acquisition, so callers can tie an outer resource's lifetime (e.g. the
// inter-process file lock) to the outermost critical section only — a
// reentrant call must not re-acquire or prematurely release it.
func (m *recursiveMutex) lock() (fresh bool) {
	id := goroutineID()

	m.meta.Lock()
	if m.owner == id && m.depth > 0 {
		m.depth++
		m.meta.Unlock()
		return false
	}
	m.meta.Unlock()

	<-m.gate

	m.meta.Lock()
	m.owner = id
	m.depth = 1
	m.meta.Unlock()
	return true
}

// unlock releases one level of recursion, releasing the underlying gate
// only when the outermost caller unlocks.
func (m *recursiveMutex) unlock() {
	m.meta.Lock()
	m.depth--
	done := m.depth <= 0
	if done {
		m.owner = 0
		m.depth = 0
	}
	m.meta.Unlock()

	if done {
		m.gate <- struct{}{}
	}
}

func goroutineID() int64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]
	// Header looks like "goroutine 123 [running]:".
	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	if i := bytes.IndexByte(buf, ' '); i >= 0 {
		buf = buf[:i]
	}
	id, _ := strconv.ParseInt(string(buf), 10, 64)
	return id
}
