// Package ratelimit throttles how fast results are written.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter spaces out writes evenly. A nil *Limiter never waits.
type Limiter struct {
	limiter *rate.Limiter
}

// New allows perSecond writes per second after an initial burst.
// perSecond <= 0 disables throttling; burst is raised to at least 1.
func New(perSecond float64, burst int) *Limiter {
	burst = max(burst, 1)
	if perSecond <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, burst)}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until the next write may happen or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	return l.limiter.Wait(ctx)
}

func (l *Limiter) Allow() bool {
	return l == nil || l.limiter.Allow()
}

// Limit is 0 when throttling is disabled.
func (l *Limiter) Limit() float64 {
	if l.Unlimited() {
		return 0
	}
	return float64(l.limiter.Limit())
}

func (l *Limiter) Unlimited() bool {
	return l == nil || l.limiter.Limit() == rate.Inf
}
