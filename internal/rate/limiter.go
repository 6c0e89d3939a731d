package rate

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter gates outbound API calls so we respect Gmail rate limits.
type Limiter interface {
	Wait(ctx context.Context) error
	WaitN(ctx context.Context, units int) error
}

// Gmail quota units per call type.
// See https://developers.google.com/gmail/api/reference/quota
const (
	UnitsThreadsList = 10
	UnitsThreadsGet  = 10
	UnitsBatchModify = 50

	unitsPerSecond   = 250
	defaultRateShare = 0.8 // leave headroom for other clients on the account
)

// QuotaLimiter meters calls in Gmail quota units rather than raw requests,
// so a batchModify and a threads.get consume proportionate budget.
type QuotaLimiter struct {
	limiter *rate.Limiter
}

// NewQuotaLimiter returns a limiter releasing unitsPerSec quota units per
// second. Non-positive selects the conservative default (80% of the
// documented per-user budget).
func NewQuotaLimiter(unitsPerSec float64) *QuotaLimiter {
	if unitsPerSec <= 0 {
		unitsPerSec = unitsPerSecond * defaultRateShare
	}
	return &QuotaLimiter{
		limiter: rate.NewLimiter(rate.Limit(unitsPerSec), unitsPerSecond),
	}
}

// Wait blocks for a single quota unit.
func (q *QuotaLimiter) Wait(ctx context.Context) error {
	return q.WaitN(ctx, 1)
}

// WaitN blocks until units quota units are available or ctx is canceled.
func (q *QuotaLimiter) WaitN(ctx context.Context, units int) error {
	if units <= 0 {
		units = 1
	}
	if err := q.limiter.WaitN(ctx, units); err != nil {
		return fmt.Errorf("rate wait canceled: %w", err)
	}
	return nil
}

var _ Limiter = (*QuotaLimiter)(nil)
