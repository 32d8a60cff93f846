package store

import "sync/atomic"

type holder struct {
	store Store
}

// Handle is the swappable active index pointer. Rebuilds populate a fresh
// Store and swap it in atomically, so concurrent readers see either the
// pre-rebuild or the post-rebuild index, never a mix.
type Handle struct {
	active atomic.Pointer[holder]
}

// NewHandle creates a handle pointing at the given store.
func NewHandle(s Store) *Handle {
	h := &Handle{}
	h.active.Store(&holder{store: s})
	return h
}

// Load returns the currently active store.
func (h *Handle) Load() Store {
	return h.active.Load().store
}

// Swap activates a new store and returns the previous one so the caller can
// close it once in-flight readers are done.
func (h *Handle) Swap(s Store) Store {
	prev := h.active.Swap(&holder{store: s})
	return prev.store
}
