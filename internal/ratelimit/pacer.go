package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces request starts at least Interval apart. The first start is
// immediate; the gap is measured between starts, so a slow request does not
// delay the next one beyond the interval. A Pacer belongs to one crawl run.
type Pacer struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewPacer returns a Pacer for requestsPerMinute. A non-positive rate
// disables pacing.
func NewPacer(requestsPerMinute int) *Pacer {
	if requestsPerMinute <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	interval := time.Minute / time.Duration(requestsPerMinute)
	return &Pacer{
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Interval returns the minimum spacing between request starts.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// AwaitSlot blocks until the next request may start and claims that slot.
// Concurrent callers reserve consecutive slots, so workers are spaced too.
func (p *Pacer) AwaitSlot(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		// Wait refuses up front when the slot lies past the deadline; hold
		// the caller until the context actually ends.
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}
