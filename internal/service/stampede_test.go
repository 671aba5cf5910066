package service

import (
	"sync"
	"testing"

	"github.com/kjstillabower/weather-relay/internal/models"
)

// TestStampedeTracker_BeginEnd verifies that Begin returns the concurrent count per key
// and End decrements it until the key is removed.
func TestStampedeTracker_BeginEnd(t *testing.T) {
	st := newStampedeTracker()
	key := models.Key{Location: "Boston", Date: "2024-01-01"}

	if got := st.Begin(key); got != 1 {
		t.Errorf("Begin first = %d, want 1", got)
	}
	if got := st.Begin(key); got != 2 {
		t.Errorf("Begin second = %d, want 2", got)
	}
	st.End(key)
	if got := st.InFlight(key); got != 1 {
		t.Errorf("InFlight after one End = %d, want 1", got)
	}
	st.End(key)
	st.End(key) // extra End is harmless
	if got := st.InFlight(key); got != 0 {
		t.Errorf("InFlight after all End = %d, want 0", got)
	}
	if len(st.activeMisses) != 0 {
		t.Errorf("activeMisses = %v, want empty", st.activeMisses)
	}
}

// TestStampedeTracker_KeysIndependent verifies that keys differing in case are tracked separately.
func TestStampedeTracker_KeysIndependent(t *testing.T) {
	st := newStampedeTracker()
	st.Begin(models.Key{Location: "Boston", Date: "d"})
	if got := st.Begin(models.Key{Location: "boston", Date: "d"}); got != 1 {
		t.Errorf("Begin(boston) = %d, want 1", got)
	}
}

// TestStampedeTracker_Concurrent verifies that concurrent Begin/End calls are race-free.
func TestStampedeTracker_Concurrent(t *testing.T) {
	st := newStampedeTracker()
	key := models.Key{Location: "Boston", Date: "2024-01-01"}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Begin(key)
			st.End(key)
		}()
	}
	wg.Wait()
	if got := st.InFlight(key); got != 0 {
		t.Errorf("InFlight = %d, want 0", got)
	}
}
