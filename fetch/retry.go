package fetch

import (
	"context"
	"time"

	"github.com/justapithecus/stratum/log"
	"github.com/justapithecus/stratum/types"
)

// Policy configures exponential backoff between fetch attempts.
type Policy struct {
	// Attempts is the total attempt budget, including the first try.
	Attempts int
	// Multiplier scales the exponential term.
	Multiplier time.Duration
	// MinWait and MaxWait clamp each computed wait.
	MinWait time.Duration
	MaxWait time.Duration
}

// DefaultPolicy returns the standard backoff: 6 attempts, waits of
// multiplier*2^n seconds clamped to [3s, 60s].
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   6,
		Multiplier: 2 * time.Second,
		MinWait:    3 * time.Second,
		MaxWait:    60 * time.Second,
	}
}

// Wait returns the backoff before retry n (1-based count of failures so far).
func (p Policy) Wait(n int) time.Duration {
	w := p.Multiplier
	for i := 0; i < n; i++ {
		w *= 2
		if w >= p.MaxWait {
			return p.MaxWait
		}
	}
	if w < p.MinWait {
		return p.MinWait
	}
	return w
}

// Sleeper blocks for the given duration or until the context is done.
// Injectable so retry timing is testable without real waits.
type Sleeper func(ctx context.Context, d time.Duration) error

// DefaultSleeper sleeps on a timer, honoring cancellation.
func DefaultSleeper(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type retryEngine struct {
	engine  Engine
	policy  Policy
	sleep   Sleeper
	logger  *log.Logger
	onRetry func()
}

// WithRetry wraps an engine with the backoff policy. A nil sleeper uses
// DefaultSleeper. Non-retryable failures return immediately; otherwise the
// last attempt's error propagates after the budget is spent.
func WithRetry(engine Engine, policy Policy, sleeper Sleeper, logger *log.Logger) Engine {
	if sleeper == nil {
		sleeper = DefaultSleeper
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &retryEngine{engine: engine, policy: policy, sleep: sleeper, logger: logger}
}

// WithRetryObserved is WithRetry plus a callback fired before every retry,
// used to feed the metrics collector.
func WithRetryObserved(engine Engine, policy Policy, sleeper Sleeper, logger *log.Logger, onRetry func()) Engine {
	e := WithRetry(engine, policy, sleeper, logger).(*retryEngine)
	e.onRetry = onRetry
	return e
}

func (r *retryEngine) Fetch(ctx context.Context, req *types.FetchRequest) (*types.FetchResult, error) {
	attempts := r.policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := r.engine.Fetch(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !Retryable(err) || attempt == attempts {
			break
		}

		wait := r.policy.Wait(attempt)
		r.logger.Warn("fetch attempt failed, backing off", map[string]any{
			"url":     req.URL,
			"attempt": attempt,
			"wait_ms": wait.Milliseconds(),
			"error":   err.Error(),
		})
		if r.onRetry != nil {
			r.onRetry()
		}
		if err := r.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}
