package service

import (
	"sync"
	"testing"
)

func TestPairLockSerializesSamePair(t *testing.T) {
	var locks pairLocks
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock(7, 42)
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Fatalf("counter = %d, want 100", counter)
	}
}

func TestPairLockReentryAfterUnlock(t *testing.T) {
	var locks pairLocks
	unlock := locks.lock(1, 1)
	unlock()
	// Re-acquiring the same pair must not deadlock.
	unlock = locks.lock(1, 1)
	unlock()
}
