package tracker

import (
	"sync"
	"time"
)

// inFlight implements thread safe set of records with a mutation in progress, to prevent duplicate submissions
type inFlight struct {
	active map[string]time.Time
	lock   sync.Mutex
}

func newInFlight() *inFlight {
	return &inFlight{active: make(map[string]time.Time)}
}

// add record key to the set, fail if already in
func (f *inFlight) add(key string) bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	if _, found := f.active[key]; found {
		return false
	}
	f.active[key] = time.Now()
	return true
}

// remove key from the set. Safe to call multiple times
func (f *inFlight) remove(key string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	delete(f.active, key)
}

func (f *inFlight) has(key string) bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	_, found := f.active[key]
	return found
}
