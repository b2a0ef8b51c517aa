// Package timers tracks the scheduled tasks of a single room: the phase deadline timer
// and one reveal-expiry timer per player.
package timers

import (
	"sync"
	"time"
)

// Handle is a cancellable scheduled task. Cancel is idempotent and safe on a nil handle
// or after the task has fired.
type Handle struct {
	mu     sync.Mutex
	timer  *time.Timer
	done   bool
	onDone func()
}

func schedule(d time.Duration, fn func(), onDone func()) *Handle {
	h := &Handle{onDone: onDone}
	h.timer = time.AfterFunc(d, func() {
		if !h.claim() {
			return
		}
		fn()
	})
	return h
}

// claim marks the handle finished and reports whether the caller won the race against Cancel.
func (h *Handle) claim() bool {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		return false
	}
	h.done = true
	onDone := h.onDone
	h.mu.Unlock()
	if onDone != nil {
		onDone()
	}
	return true
}

// Cancel stops the task. It reports whether this call prevented the task from running.
func (h *Handle) Cancel() bool {
	if h == nil {
		return false
	}
	h.timer.Stop()
	return h.claim()
}

// Done reports whether the task fired or was cancelled.
func (h *Handle) Done() bool {
	if h == nil {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

// Registry holds the timers of one room.
type Registry struct {
	mu       sync.Mutex
	deadline *Handle
	reveals  map[string]*Handle
	closed   bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{reveals: make(map[string]*Handle)}
}

// StartDeadline schedules fn after d, cancelling any deadline already scheduled.
// Returns nil once the registry has been closed.
func (r *Registry) StartDeadline(d time.Duration, fn func()) *Handle {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	prev := r.deadline

	var h *Handle
	h = schedule(d, fn, func() {
		r.mu.Lock()
		if r.deadline == h {
			r.deadline = nil
		}
		r.mu.Unlock()
	})
	r.deadline = h
	r.mu.Unlock()

	prev.Cancel()
	return h
}

// CancelDeadline cancels the live deadline, if any. It reports whether one was cancelled.
func (r *Registry) CancelDeadline() bool {
	r.mu.Lock()
	h := r.deadline
	r.deadline = nil
	r.mu.Unlock()
	return h.Cancel()
}

// HasDeadline reports whether a deadline timer is live.
func (r *Registry) HasDeadline() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deadline != nil
}

// StartReveal schedules a reveal-expiry task for playerID carrying a private copy of the
// snapshot, replacing any pending one for the same player. The task is dropped from the
// registry before fn runs.
func (r *Registry) StartReveal(playerID string, d time.Duration, snapshot []string, fn func(snapshot []string)) *Handle {
	snap := make([]string, len(snapshot))
	copy(snap, snapshot)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	prev := r.reveals[playerID]

	var h *Handle
	h = schedule(d, func() { fn(snap) }, func() {
		r.mu.Lock()
		if r.reveals[playerID] == h {
			delete(r.reveals, playerID)
		}
		r.mu.Unlock()
	})
	r.reveals[playerID] = h
	r.mu.Unlock()

	prev.Cancel()
	return h
}

// CancelReveal cancels the pending reveal-expiry task of playerID.
func (r *Registry) CancelReveal(playerID string) bool {
	r.mu.Lock()
	h := r.reveals[playerID]
	delete(r.reveals, playerID)
	r.mu.Unlock()
	return h.Cancel()
}

// PendingReveals returns the number of reveal-expiry tasks still scheduled.
func (r *Registry) PendingReveals() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reveals)
}

// Close cancels every timer and rejects further scheduling.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	deadline := r.deadline
	r.deadline = nil
	reveals := r.reveals
	r.reveals = make(map[string]*Handle)
	r.mu.Unlock()

	deadline.Cancel()
	for _, h := range reveals {
		h.Cancel()
	}
}
