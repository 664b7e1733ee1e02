// Package broadcast provides a close-once wake primitive: a reusable
// signal any cache entry can embed. Closing a channel wakes every
// current and future receiver exactly once, which satisfies spec.md
// §4.3's waker-list contract (I4: wakers registered before a transition
// fire exactly once) without needing to track a waker list at all — a
// receiver just blocks on the channel and re-checks state.
package broadcast

import "sync"

// Signal is a single-fire broadcast. The zero value is ready to use.
type Signal struct {
	once sync.Once
	ch   chan struct{}
	mu   sync.Mutex
}

// lazyInit allocates ch on first use without requiring a constructor.
func (s *Signal) lazyInit() {
	s.mu.Lock()
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
	s.mu.Unlock()
}

// C returns the channel that closes when Fire is called. Safe to call
// before Fire; safe to call from multiple goroutines.
func (s *Signal) C() <-chan struct{} {
	s.lazyInit()
	return s.ch
}

// Fire closes the channel, waking every waiter exactly once. Calling Fire
// more than once is a no-op (terminal entries never transition again, so in
// practice Fire is called at most once per Signal, but callers are not
// required to prove that statically).
func (s *Signal) Fire() {
	s.lazyInit()
	s.once.Do(func() { close(s.ch) })
}

// Fired reports whether Fire has already been called, without blocking.
func (s *Signal) Fired() bool {
	s.lazyInit()
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
