// Package ratelimit spaces out requests to the same source.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Gate holds one limiter per source key. A limiter has a burst of one, so two
// admissions for the same key are always at least the interval apart.
type Gate struct {
	mu        sync.Mutex
	interval  time.Duration
	overrides map[string]time.Duration
	limiters  map[string]*rate.Limiter
}

func NewGate(interval time.Duration) *Gate {
	return &Gate{
		interval:  interval,
		overrides: make(map[string]time.Duration),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// SetInterval overrides the interval for one key. It must be called before
// the first Wait for that key.
func (g *Gate) SetInterval(key string, interval time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.overrides[key] = interval
	delete(g.limiters, key)
}

// Wait blocks until key may issue another request or ctx is done.
func (g *Gate) Wait(ctx context.Context, key string) error {
	return g.limiter(key).Wait(ctx)
}

func (g *Gate) limiter(key string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	if l, ok := g.limiters[key]; ok {
		return l
	}

	interval := g.interval
	if d, ok := g.overrides[key]; ok {
		interval = d
	}

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	l := rate.NewLimiter(limit, 1)
	g.limiters[key] = l
	return l
}
