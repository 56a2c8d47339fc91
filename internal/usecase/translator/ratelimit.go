package translator

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"modmanager/internal/ports"
)

// RateBudget admits remote calls so that at most perSecond start in any
// rolling second, at most perMinute in any rolling minute, and consecutive
// starts are at least minInterval apart. It blocks instead of failing.
type RateBudget struct {
	mu        sync.Mutex
	clock     ports.Clock
	perSecond int
	perMinute int
	second    []time.Time
	minute    []time.Time
	spacing   *rate.Limiter // nil when minInterval is zero
	last      time.Time
}

type BudgetSnapshot struct {
	CallsLastSecond int       `json:"calls_last_second"`
	CallsLastMinute int       `json:"calls_last_minute"`
	LastCallAt      time.Time `json:"last_call_at"`
}

func NewRateBudget(perSecond, perMinute int, minInterval time.Duration, clock ports.Clock) *RateBudget {
	if clock == nil {
		clock = ports.SystemClock
	}
	b := &RateBudget{clock: clock, perSecond: perSecond, perMinute: perMinute}
	if minInterval > 0 {
		b.spacing = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return b
}

// Acquire blocks until a call may start and records it.
func (b *RateBudget) Acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		wait := b.reserve()
		if wait == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.clock.After(wait):
		}
	}
}

// reserve records a call and returns 0 when every limit allows it now,
// otherwise it records nothing and returns how long to wait.
func (b *RateBudget) reserve() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.clock.Now()
	b.second = prune(b.second, now.Add(-time.Second))
	b.minute = prune(b.minute, now.Add(-time.Minute))

	var wait time.Duration
	if b.perSecond > 0 && len(b.second) >= b.perSecond {
		wait = max(wait, b.second[0].Add(time.Second).Sub(now))
	}
	if b.perMinute > 0 && len(b.minute) >= b.perMinute {
		wait = max(wait, b.minute[0].Add(time.Minute).Sub(now))
	}
	if b.spacing != nil {
		if tokens := b.spacing.TokensAt(now); tokens < 1 {
			need := time.Duration(math.Ceil((1 - tokens) / float64(b.spacing.Limit()) * float64(time.Second)))
			wait = max(wait, need, time.Millisecond)
		}
	}
	if wait > 0 {
		return wait
	}
	if b.spacing != nil {
		b.spacing.AllowN(now, 1)
	}
	b.second = append(b.second, now)
	b.minute = append(b.minute, now)
	b.last = now
	return 0
}

// prune drops leading entries at or before cutoff.
func prune(log []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(log) && !log[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return log
	}
	return append(log[:0], log[i:]...)
}

func (b *RateBudget) Snapshot() BudgetSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.clock.Now()
	b.second = prune(b.second, now.Add(-time.Second))
	b.minute = prune(b.minute, now.Add(-time.Minute))
	return BudgetSnapshot{CallsLastSecond: len(b.second), CallsLastMinute: len(b.minute), LastCallAt: b.last}
}
