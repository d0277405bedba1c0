// ratelimit.go - Per-address rate limiting for mutating intents
package ratelimit

import (
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// AddressLimiter keeps one token bucket per wallet address.
type AddressLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// New creates a limiter allowing rps requests per second per address, with
// bursts of up to burst.
func New(rps float64, burst int) *AddressLimiter {
	if rps <= 0 {
		rps = 2
	}
	if burst <= 0 {
		burst = 5
	}
	return &AddressLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *AddressLimiter) get(addr string) *rate.Limiter {
	key := strings.ToLower(addr)
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// Allow reports whether addr may act now and consumes a token if so.
func (l *AddressLimiter) Allow(addr string) bool {
	return l.get(addr).Allow()
}

// Tokens returns the tokens currently available to addr.
func (l *AddressLimiter) Tokens(addr string) float64 {
	l.mu.Lock()
	lim, ok := l.limiters[strings.ToLower(addr)]
	l.mu.Unlock()
	if !ok {
		return float64(l.burst)
	}
	return lim.Tokens()
}
