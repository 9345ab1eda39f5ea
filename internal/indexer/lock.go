package indexer

import "sync"

// lockRegistry serializes indexing runs per source ID. Runs for the same
// source queue behind each other; runs for different sources proceed
// concurrently.
type lockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sourceLock
}

// sourceLock is a per-source mutex with a reference count so entries can
// be removed from the registry once no run is waiting on them.
type sourceLock struct {
	mu   sync.Mutex
	refs int
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{locks: make(map[string]*sourceLock)}
}

// acquire blocks until the source's lock is held and returns the release
// function. Must be released exactly once.
func (r *lockRegistry) acquire(sourceID string) func() {
	r.mu.Lock()
	sl, ok := r.locks[sourceID]
	if !ok {
		sl = &sourceLock{}
		r.locks[sourceID] = sl
	}
	sl.refs++
	r.mu.Unlock()

	sl.mu.Lock()

	return func() {
		sl.mu.Unlock()

		r.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(r.locks, sourceID)
		}
		r.mu.Unlock()
	}
}
