package bridge

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{Attempts: 3, Delay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("flaky rpc: %w", ErrNetworkUnavailable)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected eventual success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
}

func TestWithRetry_NonTransientErrorSurfacesImmediately(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{Attempts: 3, Delay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return fmt.Errorf("bad input: %w", ErrInvalidAddress)
	})
	if !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("Expected ErrInvalidAddress, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single attempt, got %d", calls)
	}
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{Attempts: 2, Delay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return fmt.Errorf("still down: %w", ErrNetworkUnavailable)
	})
	if !errors.Is(err, ErrNetworkUnavailable) {
		t.Fatalf("Expected ErrNetworkUnavailable, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls)
	}
}

func TestWithRetry_CanceledContextStopsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, RetryConfig{Attempts: 5, Delay: time.Minute}, func(ctx context.Context) error {
		return fmt.Errorf("down: %w", ErrNetworkUnavailable)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
