package service

import (
	"sync"

	"github.com/kjstillabower/weather-relay/internal/models"
)

// stampedeTracker counts misses in progress per key. Lookups are not
// de-duplicated, so a count above 1 means several callers are fetching the
// same key upstream at once. Used for metrics only.
type stampedeTracker struct {
	mu           sync.Mutex
	activeMisses map[models.Key]int
}

func newStampedeTracker() *stampedeTracker {
	return &stampedeTracker{
		activeMisses: make(map[models.Key]int),
	}
}

// Begin records a miss for key and returns the number of misses in progress
// for it, including this one. Pair every call with End.
func (st *stampedeTracker) Begin(key models.Key) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.activeMisses[key]++
	return st.activeMisses[key]
}

// End marks one miss for key as resolved.
func (st *stampedeTracker) End(key models.Key) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.activeMisses[key] <= 1 {
		delete(st.activeMisses, key)
		return
	}
	st.activeMisses[key]--
}

// InFlight returns the number of misses in progress for key.
func (st *stampedeTracker) InFlight(key models.Key) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.activeMisses[key]
}
