package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Category identifies an independent limiting policy. Keys are scoped per
// category, so the same string can be throttled separately for logins and
// flag submissions.
type Category string

const (
	// Login throttles authentication attempts, keyed by client IP.
	Login Category = "login"
	// FlagSubmission throttles flag submissions, keyed by username.
	FlagSubmission Category = "flag_submission"
)

// Policy describes a token bucket: Capacity tokens, refilled greedily
// (continuous accrual) at Capacity tokens per Window.
type Policy struct {
	Capacity int           `yaml:"capacity"`
	Window   time.Duration `yaml:"window"`
}

// DefaultPolicies returns the stock event policies: 10 login attempts per
// minute per IP and 5 flag submissions per minute per user.
func DefaultPolicies() map[Category]Policy {
	return map[Category]Policy{
		Login:          {Capacity: 10, Window: time.Minute},
		FlagSubmission: {Capacity: 5, Window: time.Minute},
	}
}

// Limiter holds per-key token buckets for each category. Buckets are
// created lazily at full capacity on first observation and live for the
// process lifetime; state is never persisted.
type Limiter struct {
	mu       sync.RWMutex
	policies map[Category]Policy
	buckets  map[bucketKey]*rate.Limiter
}

type bucketKey struct {
	category Category
	key      string
}

// New creates a limiter with the default event policies.
func New() *Limiter {
	return NewWithPolicies(DefaultPolicies())
}

// NewWithPolicies creates a limiter with custom per-category policies.
// Categories without a policy, or with a non-positive capacity, are not
// throttled.
func NewWithPolicies(policies map[Category]Policy) *Limiter {
	cleaned := make(map[Category]Policy, len(policies))
	for category, policy := range policies {
		if policy.Capacity <= 0 || policy.Window <= 0 {
			continue
		}
		cleaned[category] = policy
	}
	return &Limiter{
		policies: cleaned,
		buckets:  make(map[bucketKey]*rate.Limiter),
	}
}

// TryConsume atomically takes one token from the bucket for (category,
// key). It returns false without changing state when the bucket is empty;
// the caller must treat that as an immediate rejection, never a retry.
func (l *Limiter) TryConsume(category Category, key string) bool {
	return l.tryConsumeAt(time.Now(), category, key)
}

func (l *Limiter) tryConsumeAt(now time.Time, category Category, key string) bool {
	bucket, ok := l.bucket(category, key)
	if !ok {
		return true
	}
	return bucket.AllowN(now, 1)
}

// bucket returns the token bucket for (category, key), creating it at
// full capacity on first use. The registry lock only guards the map;
// consumption on different keys never contends.
func (l *Limiter) bucket(category Category, key string) (*rate.Limiter, bool) {
	policy, ok := l.policies[category]
	if !ok {
		return nil, false
	}
	id := bucketKey{category: category, key: key}

	l.mu.RLock()
	bucket, ok := l.buckets[id]
	l.mu.RUnlock()
	if ok {
		return bucket, true
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if bucket, ok = l.buckets[id]; ok {
		return bucket, true
	}
	refill := rate.Limit(float64(policy.Capacity) / policy.Window.Seconds())
	bucket = rate.NewLimiter(refill, policy.Capacity)
	l.buckets[id] = bucket
	return bucket, true
}
