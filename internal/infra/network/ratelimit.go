package network

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket paces outbound calls. Tokens refill continuously at rate per
// second up to capacity; a non-positive rate disables pacing.
type TokenBucket struct {
	lim *rate.Limiter
	now func() time.Time
}

func NewTokenBucket(capacity int, perSecond float64) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}

	return &TokenBucket{lim: rate.NewLimiter(limit, capacity), now: time.Now}
}

// Allow takes a token if one is available.
func (b *TokenBucket) Allow() bool {
	return b.lim.AllowN(b.now(), 1)
}

// Wait blocks until a token is taken or ctx is done. A token that would only
// be due after the ctx deadline fails at once with context.DeadlineExceeded.
func (b *TokenBucket) Wait(ctx context.Context) error {
	if err := b.lim.Wait(ctx); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		return fmt.Errorf("%v: %w", err, context.DeadlineExceeded)
	}

	return nil
}
