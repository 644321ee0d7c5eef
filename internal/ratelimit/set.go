package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Policy names used by the HTTP routes.
const (
	PolicyRead  = "read"
	PolicyWrite = "write"
	PolicyBulk  = "bulk"
)

// Set groups independent limiters by policy name.
type Set struct {
	limiters map[string]*Limiter
}

// NewSet builds one Limiter per policy.
func NewSet(policies ...Policy) *Set {
	s := &Set{limiters: make(map[string]*Limiter, len(policies))}
	for _, p := range policies {
		s.limiters[p.Name] = New(p)
	}
	return s
}

// Get returns the limiter of the named policy, or nil.
func (s *Set) Get(name string) *Limiter {
	return s.limiters[name]
}

// Run starts a sweeper per limiter and blocks until ctx is cancelled and all
// sweepers returned.
func (s *Set) Run(ctx context.Context, interval time.Duration) {
	var wg sync.WaitGroup
	for _, l := range s.limiters {
		wg.Add(1)
		go func(l *Limiter) {
			defer wg.Done()
			l.Run(ctx, interval)
		}(l)
	}
	wg.Wait()
}
