package service

import (
	"sync"
	"testing"
)

func TestLockForIsStablePerSession(t *testing.T) {
	ss := &sessionService{}

	first := ss.lockFor("user-1", "abc12345")
	second := ss.lockFor("user-1", "abc12345")
	if first != second {
		t.Errorf("same (user, session) must map to the same lock")
	}

	if ss.lockFor("user-2", "abc12345") == ss.lockFor("user-1", "abc12345") &&
		ss.lockFor("user-1", "def67890") == ss.lockFor("user-1", "abc12345") &&
		ss.lockFor("user-2", "def67890") == ss.lockFor("user-1", "abc12345") {
		t.Errorf("every key hashed to one stripe, striping is broken")
	}
}

func TestLockForSerializesConcurrentHolders(t *testing.T) {
	ss := &sessionService{}

	var holders int
	var peak int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock := ss.lockFor("user-1", "abc12345")
			lock.Lock()
			mu.Lock()
			holders++
			if holders > peak {
				peak = holders
			}
			mu.Unlock()

			mu.Lock()
			holders--
			mu.Unlock()
			lock.Unlock()
		}()
	}
	wg.Wait()

	if peak > 1 {
		t.Errorf("expected at most one holder of a session lock, saw %d", peak)
	}
}
