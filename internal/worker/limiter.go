package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// CategoryLimiter rate-limits calls per key (one key per data category).
// It is shared across requests. A non-positive rate disables limiting.
type CategoryLimiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
	disabled     bool
}

// NewCategoryLimiter creates a limiter allowing requestsPerSecond per key
func NewCategoryLimiter(requestsPerSecond float64, burst int) *CategoryLimiter {
	if burst <= 0 {
		burst = 5
	}

	return &CategoryLimiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
		disabled:     requestsPerSecond <= 0,
	}
}

// Wait blocks until a call for key is allowed or ctx is done
func (l *CategoryLimiter) Wait(ctx context.Context, key string) error {
	if l.disabled {
		if limiter, ok := l.override(key); ok {
			return limiter.Wait(ctx)
		}
		return ctx.Err()
	}
	return l.getLimiter(key).Wait(ctx)
}

// Allow reports whether a call for key may proceed now
func (l *CategoryLimiter) Allow(key string) bool {
	if l.disabled {
		if limiter, ok := l.override(key); ok {
			return limiter.Allow()
		}
		return true
	}
	return l.getLimiter(key).Allow()
}

// override returns a limiter installed with SetRate
func (l *CategoryLimiter) override(key string) (*rate.Limiter, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	limiter, ok := l.limiters[key]
	return limiter, ok
}

// getLimiter returns the limiter for key, creating it on first use
func (l *CategoryLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[key] = limiter

	return limiter
}

// SetRate overrides the rate for one key. It also enables a limiter that
// was created disabled, for that key only.
func (l *CategoryLimiter) SetRate(key string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[key] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}
