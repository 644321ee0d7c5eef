// Package ratelimit implements per-instance fixed-window request limiting.
// Windows live in memory and are not shared between server instances.
package ratelimit

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/blake2b"
)

// Policy is a named limit of Max requests per Window.
type Policy struct {
	Name   string
	Window time.Duration
	Max    int
}

// Result describes the state of a key's window after a request was counted.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the time left until the window resets, rounded up to
// whole seconds.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return d.Truncate(time.Second) + time.Second
}

type window struct {
	count int
	reset time.Time
}

// Limiter applies one Policy to many keys.
type Limiter struct {
	policy Policy

	mu      sync.Mutex
	windows *cache.Cache
	now     func() time.Time
}

// New returns a Limiter for p. Windows carry no cache TTL: their reset time
// is judged by the limiter clock, and expired windows are evicted by Sweep or
// Run.
func New(p Policy) *Limiter {
	return &Limiter{
		policy:  p,
		windows: cache.New(cache.NoExpiration, 0),
		now:     time.Now,
	}
}

// Policy returns the limiter's policy.
func (l *Limiter) Policy() Policy {
	return l.policy
}

// Allow counts one request for key and reports whether it may proceed.
func (l *Limiter) Allow(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	var w *window
	if v, ok := l.windows.Get(key); ok {
		w = v.(*window)
	}
	if w == nil || !now.Before(w.reset) {
		w = &window{reset: now.Add(l.policy.Window)}
		l.windows.Set(key, w, cache.NoExpiration)
	}
	w.count++

	remaining := l.policy.Max - w.count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   w.count <= l.policy.Max,
		Limit:     l.policy.Max,
		Remaining: remaining,
		ResetAt:   w.reset,
	}
}

// Sweep evicts windows whose reset time has passed and returns how many were
// removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, item := range l.windows.Items() {
		if w, ok := item.Object.(*window); ok && !now.Before(w.reset) {
			l.windows.Delete(key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked windows.
func (l *Limiter) Len() int {
	return l.windows.ItemCount()
}

// Run sweeps every interval until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// ClientKey identifies a caller. API keys are hashed so raw secrets are
// never stored in the window table; without a key the source address is used.
func ClientKey(apiKey, ip string) string {
	if apiKey != "" {
		sum := blake2b.Sum256([]byte(apiKey))
		return "key:" + hex.EncodeToString(sum[:16])
	}
	return "ip:" + ip
}
