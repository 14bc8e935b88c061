package domain

import (
	"sync"

	"github.com/google/uuid"
)

// Handle is a cancellation token for exactly one event subscription.
// Handles are appended to a node's subscription set as they are allocated
// and invalidated in bulk, exactly once, when the node is detected as
// removed from the tree. Individual subscriptions cannot be canceled
// selectively through the engine.
type Handle struct {
	id string

	mu       sync.Mutex
	canceled bool
	cancel   func()
}

// NewHandle allocates a handle with a unique identifier.
func NewHandle() *Handle {
	return &Handle{id: uuid.NewString()}
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string {
	return h.id
}

// Bind attaches the function that undoes the subscription. Binding after
// cancellation runs the function immediately, so a racing teardown can never
// leak a listener.
func (h *Handle) Bind(cancel func()) {
	h.mu.Lock()
	if h.canceled {
		h.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return
	}
	h.cancel = cancel
	h.mu.Unlock()
}

// Cancel invalidates the handle and undoes the bound subscription. Safe to
// call more than once; only the first call has effect.
func (h *Handle) Cancel() {
	h.mu.Lock()
	if h.canceled {
		h.mu.Unlock()
		return
	}
	h.canceled = true
	cancel := h.cancel
	h.cancel = nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Canceled reports whether the handle has been invalidated. Wrapped event
// handlers check it so that canceled subscriptions never fire, even when the
// host removes listeners lazily.
func (h *Handle) Canceled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.canceled
}
