package bridge

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// RetryConfig bounds retries for read operations. Write operations
// (Withdraw, Deposit) are never routed through here.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{Attempts: 3, Delay: 500 * time.Millisecond}

// WithRetry runs fn up to cfg.Attempts times with exponential backoff,
// retrying only transient RPC failures (ErrNetworkUnavailable). Other
// errors, such as ErrInvalidAddress, surface immediately.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func(context.Context) error) error {
	if cfg.Attempts <= 0 {
		cfg = DefaultRetryConfig
	}

	var lastErr error
	delay := cfg.Delay
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, ErrNetworkUnavailable) {
			return lastErr
		}
		if attempt == cfg.Attempts {
			break
		}

		zap.L().Debug("Transient RPC failure, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(lastErr))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return lastErr
}
