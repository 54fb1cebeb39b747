// Package cancel implements the CancellationHub (spec.md §4.4): a
// publish-subscribe primitive with exactly one publisher and N
// subscribers, where a single cancel() call wakes every subscriber
// exactly once, including subscribers that join after cancel() already
// fired.
package cancel

import "sync"

// Hub is single-use per batch: once Cancel is called it stays cancelled,
// and every channel returned by Subscribe (before or after) is closed.
type Hub struct {
	mu       sync.Mutex
	done     chan struct{}
	reason   string
	canceled bool
}

// New returns a ready-to-use Hub.
func New() *Hub {
	return &Hub{done: make(chan struct{})}
}

// Subscribe returns a channel that is closed when Cancel is called. A Go
// closed channel is itself the one-shot broadcast primitive: every
// receiver (present or future) observes the close instantly and exactly
// once, which is precisely what a subscriber joining after Cancel needs.
func (h *Hub) Subscribe() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

// Cancel wakes every subscriber. Only the first call has effect; repeat
// calls are no-ops, matching the hub's single-use-per-batch contract.
func (h *Hub) Cancel(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.canceled {
		return
	}
	h.canceled = true
	h.reason = reason
	close(h.done)
}

// Canceled reports whether Cancel has already been called, and if so,
// with what reason.
func (h *Hub) Canceled() (bool, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.canceled, h.reason
}
