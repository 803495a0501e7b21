// Package timer provides cancellable scheduling for debounce and delayed
// retry. A Slot owns at most one pending callback: scheduling again replaces
// it, and a cancelled or replaced callback never runs, even if its underlying
// timer has already fired.
package timer

import (
	"sync"
	"time"
)

// Clock abstracts time for components that schedule callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Stopper
}

// Stopper cancels a scheduled callback. *time.Timer satisfies it.
type Stopper interface {
	Stop() bool
}

// Real returns the wall clock.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time                              { return time.Now() }
func (realClock) AfterFunc(d time.Duration, f func()) Stopper { return time.AfterFunc(d, f) }

// Slot holds at most one pending callback.
type Slot struct {
	clock Clock

	mu      sync.Mutex
	seq     uint64
	pending Stopper
	closed  bool
}

// NewSlot returns a Slot driven by c. A nil clock means Real().
func NewSlot(c Clock) *Slot {
	if c == nil {
		c = Real()
	}
	return &Slot{clock: c}
}

// Schedule runs f after d, replacing any pending callback. It is a no-op
// once the slot is closed.
func (s *Slot) Schedule(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked()
	s.seq++
	seq := s.seq
	s.pending = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.closed || s.seq != seq {
			s.mu.Unlock()
			return
		}
		s.pending = nil
		s.mu.Unlock()
		f()
	})
}

// Cancel drops the pending callback and reports whether one was pending.
func (s *Slot) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// Pending reports whether a callback is scheduled and has not run.
func (s *Slot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Close cancels the pending callback and disables further scheduling.
func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.closed = true
}

func (s *Slot) stopLocked() bool {
	s.seq++
	if s.pending == nil {
		return false
	}
	s.pending.Stop()
	s.pending = nil
	return true
}
