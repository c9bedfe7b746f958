package dispatch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer throttles the transition between subscriber pages. Providers with
// per-window send quotas need breathing room between pages; injecting the
// pacer keeps the engine testable without real time delays.
type Pacer interface {
	// Wait blocks until the next page may start or the context is done.
	Wait(ctx context.Context) error
}

type ratePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer returns a token bucket pacer allowing one page per interval.
// The bucket starts empty, so every wait enforces a full interval; the
// engine only waits between pages, never before the first one.
func NewRatePacer(interval time.Duration) Pacer {
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	limiter.Allow()
	return &ratePacer{limiter: limiter}
}

func (p *ratePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

type noopPacer struct{}

// NewNoopPacer returns a pacer that never blocks. Used in tests and for
// platforms whose provider imposes no inter-page quota.
func NewNoopPacer() Pacer {
	return noopPacer{}
}

func (noopPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}
