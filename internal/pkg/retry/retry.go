package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the parameters for the retry strategy.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// MaxDelay caps the doubled delay. Zero leaves it uncapped.
	MaxDelay    time.Duration
	Logger      logrus.FieldLogger
}

// permanent marks an error that must not be retried.
type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent wraps err so Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err: err}
}

// Do executes fn with exponential back-off. It stops early when ctx is done
// or fn returns a Permanent error.
func (r Config) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := r.BaseDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var p permanent
		if errors.As(lastErr, &p) {
			return p.err
		}

		if attempt == attempts {
			break
		}

		if r.Logger != nil {
			r.Logger.WithFields(logrus.Fields{
				"operation": operation,
				"attempt":   attempt,
				"max":       attempts,
				"delay":     delay,
			}).WithError(lastErr).Warn("retrying")
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: %w", operation, ctx.Err())
		case <-timer.C:
		}
		delay = r.next(delay)
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, attempts, lastErr)
}

func (r Config) next(delay time.Duration) time.Duration {
	delay *= 2
	if r.MaxDelay > 0 && delay > r.MaxDelay {
		return r.MaxDelay
	}
	return delay
}
