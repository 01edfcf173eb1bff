package orrery

import (
	"errors"
	"sync"
)

// readyBarrier joins a fixed number of asynchronous completions. fire runs
// exactly once, on the goroutine that reports the last completion, with the
// joined errors of every failed member (nil if all succeeded).
type readyBarrier struct {
	mu        sync.Mutex
	remaining int
	errs      []error
	fired     bool
	fire      func(error)
}

// newReadyBarrier creates a barrier over n members. With n == 0 fire runs
// before newReadyBarrier returns.
func newReadyBarrier(n int, fire func(error)) *readyBarrier {
	b := &readyBarrier{remaining: n, fire: fire}
	if n <= 0 {
		b.fired = true
		fire(nil)
	}
	return b
}

// member returns the completion handle for one member. Calling it more than
// once counts once.
func (b *readyBarrier) member() func(error) {
	var once sync.Once
	return func(err error) {
		once.Do(func() { b.done(err) })
	}
}

func (b *readyBarrier) done(err error) {
	b.mu.Lock()
	if b.fired {
		b.mu.Unlock()
		return
	}
	if err != nil {
		b.errs = append(b.errs, err)
	}
	b.remaining--
	if b.remaining > 0 {
		b.mu.Unlock()
		return
	}
	b.fired = true
	joined := errors.Join(b.errs...)
	b.mu.Unlock()

	b.fire(joined)
}
