package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gagyebu/internal/core"
	"gagyebu/internal/records"
)

// RetryPolicy bounds the retries of a single store call.
type RetryPolicy struct {
	// MaxAttempts counts the first try; values below 1 mean a single attempt.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// backoff returns BaseDelay doubled per attempt, capped at MaxDelay.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// Do runs op until it succeeds, fails permanently or runs out of attempts.
// Only transient store errors are retried.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if attempt+1 >= attempts || !retryable(err) {
			return err
		}

		delay := p.backoff(attempt)
		slog.WarnContext(ctx, "Transient store error, retrying",
			"attempt", attempt+1,
			"max_attempts", attempts,
			"retry_in", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

func retryable(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, core.ErrNotFound),
		core.IsValidation(err):
		return false
	}
	return records.IsTransient(err) || isConnectionError(err)
}

func isConnectionError(err error) bool {
	msg := err.Error()
	for _, s := range []string{"connection refused", "connection reset", "broken pipe", "unexpected EOF", "use of closed network connection"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
