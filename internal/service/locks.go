package service

import "sync"

// resourceLocks serializes lending mutations per resource. Borrow,
// reserve and return for the same resource must not interleave their
// check-then-write sequences; operations on different resources stay
// concurrent.
type resourceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newResourceLocks() *resourceLocks {
	return &resourceLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// lock acquires the mutex for a resource, creating it on first use.
// Locks are never evicted; the catalog is small relative to the cost of
// tracking last access.
func (r *resourceLocks) lock(resourceID string) func() {
	r.mu.Lock()
	m, ok := r.locks[resourceID]
	if !ok {
		m = &sync.Mutex{}
		r.locks[resourceID] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}
