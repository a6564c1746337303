package device

import (
	"context"
	"time"

	"supercycler"

	"supercycler/internal/logger"
)

// Retrier wraps a Commander with bounded exponential backoff. After the
// attempt budget is spent it returns the last error; the caller decides
// what the failed tick means.
type Retrier struct {
	next        Commander
	maxAttempts int
	initial     time.Duration
	max         time.Duration
	log         *logger.Logger
}

// NewRetrier builds a retrying commander. maxAttempts counts the first
// try; values below 1 are treated as 1.
func NewRetrier(next Commander, maxAttempts int, initial, max time.Duration, log *logger.Logger) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	if max < initial {
		max = initial
	}
	return &Retrier{next: next, maxAttempts: maxAttempts, initial: initial, max: max, log: log}
}

// Send issues the command, backing off between failed attempts. The
// context aborts waiting immediately.
func (r *Retrier) Send(ctx context.Context, phase supercycler.Phase) error {
	backoff := r.initial
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		lastErr = r.next.Send(ctx, phase)
		if lastErr == nil {
			return nil
		}
		if r.log != nil {
			r.log.Warnw("device command attempt failed",
				"phase", phase, "attempt", attempt, "of", r.maxAttempts,
				"reason", ReasonOf(lastErr), "err", lastErr)
		}
		if attempt == r.maxAttempts {
			break
		}
		if err := sleep(ctx, backoff); err != nil {
			return lastErr
		}
		backoff *= 2
		if backoff > r.max {
			backoff = r.max
		}
	}
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
