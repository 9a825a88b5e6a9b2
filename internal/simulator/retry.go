package simulator

import (
	"context"
	"errors"
	"time"

	"github.com/GoSim-25-26J-441/surrogate-core/pkg/config"
)

// RetryPolicy decides whether a failed oracle call is attempted again.
// The zero value never retries.
type RetryPolicy struct {
	MaxRetries int
	Backoff    string // exponential, linear, constant
	Base       time.Duration
}

// RetryPolicyFromConfig converts the simulator retry settings; nil disables retries
func RetryPolicyFromConfig(cfg *config.Retry) RetryPolicy {
	if cfg == nil {
		return RetryPolicy{}
	}
	return RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.Backoff,
		Base:       time.Duration(cfg.BaseMs) * time.Millisecond,
	}
}

// Enabled reports whether any retry is allowed
func (p RetryPolicy) Enabled() bool {
	return p.MaxRetries > 0
}

// ShouldRetry reports whether retry number attempt (1-based) may run after err.
// Cancellation is final.
func (p RetryPolicy) ShouldRetry(attempt int, err error) bool {
	if err == nil || attempt > p.MaxRetries {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Delay returns the wait before retry number attempt (1-based)
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 || p.Base <= 0 {
		return 0
	}
	switch p.Backoff {
	case config.BackoffConstant:
		return p.Base
	case config.BackoffLinear:
		return p.Base * time.Duration(attempt)
	default:
		return p.Base << (attempt - 1)
	}
}

// wait sleeps for d or until ctx is done
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
