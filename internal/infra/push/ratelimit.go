package push

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter implements a token bucket guarding outbound provider calls.
// Both gateways share the type but carry their own instance, since FCM and
// APNs publish different quota shapes.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a RateLimiter with the given sustained rate and
// burst capacity. Up to burst requests pass immediately; afterwards tokens
// refill at requestsPerSecond.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Allow blocks until a token is available or the context is done. Call it
// before every provider request.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
