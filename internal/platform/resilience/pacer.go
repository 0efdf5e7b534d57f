package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces successive operations by a fixed interval with no bursting.
// The first Wait returns immediately. A zero interval never blocks.
type Pacer struct {
	interval time.Duration
	limiter  *rate.Limiter
}

func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (p *Pacer) Interval() time.Duration {
	if p == nil {
		return 0
	}
	return p.interval
}

// Wait blocks until the next slot or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.interval <= 0 {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
