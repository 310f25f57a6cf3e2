package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTryConsumeBoundary(t *testing.T) {
	limiter := New()
	now := time.Now()

	for i := 0; i < 5; i++ {
		if !limiter.tryConsumeAt(now, FlagSubmission, "alice") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if limiter.tryConsumeAt(now, FlagSubmission, "alice") {
		t.Fatal("6th attempt within the window should be rejected")
	}
}

func TestRefillAfterFullWindow(t *testing.T) {
	limiter := New()
	now := time.Now()

	for i := 0; i < 5; i++ {
		limiter.tryConsumeAt(now, FlagSubmission, "alice")
	}
	if limiter.tryConsumeAt(now, FlagSubmission, "alice") {
		t.Fatal("bucket should be empty")
	}

	later := now.Add(time.Minute)
	for i := 0; i < 5; i++ {
		if !limiter.tryConsumeAt(later, FlagSubmission, "alice") {
			t.Fatalf("attempt %d should be allowed after a full window", i+1)
		}
	}
	if limiter.tryConsumeAt(later, FlagSubmission, "alice") {
		t.Fatal("bucket should be empty again")
	}
}

func TestGreedyPartialRefill(t *testing.T) {
	limiter := New()
	now := time.Now()

	for i := 0; i < 5; i++ {
		limiter.tryConsumeAt(now, FlagSubmission, "alice")
	}

	// 5 tokens per 60s accrue continuously: one token every 12s.
	if limiter.tryConsumeAt(now.Add(11*time.Second), FlagSubmission, "alice") {
		t.Fatal("token should not have accrued after 11s")
	}
	if !limiter.tryConsumeAt(now.Add(24*time.Second), FlagSubmission, "alice") {
		t.Fatal("one token should have accrued after 24s")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	limiter := New()
	now := time.Now()

	for i := 0; i < 5; i++ {
		limiter.tryConsumeAt(now, FlagSubmission, "alice")
	}
	if limiter.tryConsumeAt(now, FlagSubmission, "alice") {
		t.Fatal("alice should be throttled")
	}
	if !limiter.tryConsumeAt(now, FlagSubmission, "bob") {
		t.Fatal("bob should not be affected by alice's bucket")
	}
}

func TestCategoriesAreIndependent(t *testing.T) {
	limiter := New()
	now := time.Now()

	for i := 0; i < 5; i++ {
		limiter.tryConsumeAt(now, FlagSubmission, "10.0.0.1")
	}
	// Same key under the login category has its own bucket with capacity 10.
	for i := 0; i < 10; i++ {
		if !limiter.tryConsumeAt(now, Login, "10.0.0.1") {
			t.Fatalf("login attempt %d should be allowed", i+1)
		}
	}
	if limiter.tryConsumeAt(now, Login, "10.0.0.1") {
		t.Fatal("11th login attempt should be rejected")
	}
}

func TestUnknownCategoryIsUnlimited(t *testing.T) {
	limiter := NewWithPolicies(map[Category]Policy{})
	for i := 0; i < 100; i++ {
		if !limiter.TryConsume(Login, "10.0.0.1") {
			t.Fatal("categories without a policy must not throttle")
		}
	}
}

func TestConcurrentConsumeExactCapacity(t *testing.T) {
	limiter := NewWithPolicies(map[Category]Policy{
		FlagSubmission: {Capacity: 50, Window: time.Hour},
	})
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.tryConsumeAt(now, FlagSubmission, "alice") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Fatalf("expected exactly 50 allowed, got %d", allowed)
	}
}

func TestConcurrentDistinctKeys(t *testing.T) {
	limiter := New()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("user-%d", n)
			for j := 0; j < 5; j++ {
				if !limiter.tryConsumeAt(now, FlagSubmission, key) {
					t.Errorf("key %s attempt %d should be allowed", key, j+1)
				}
			}
		}(i)
	}
	wg.Wait()
}
