package utils

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	apperrors "github.com/croustipeze/cookbook/internal/errors"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
		Timeout:       time.Second,
	}
}

func TestWithRetry_Success(t *testing.T) {
	calls := 0
	result, err := WithRetry(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	}, fastConfig(3))

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != "ok" {
		t.Errorf("expected 'ok', got %q", result)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestWithRetry_RetriesRetryableErrors(t *testing.T) {
	calls := 0
	result, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, apperrors.NewClassificationError("busy", "VISION_UPSTREAM", http.StatusServiceUnavailable, nil)
		}
		return 42, nil
	}, fastConfig(3))

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got %d", result)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, apperrors.NewClassificationError("bad key", "VISION_UPSTREAM", http.StatusUnauthorized, nil)
	}, fastConfig(5))

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestWithRetry_PlainErrorsAreNotRetried(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("boom")
	}, fastConfig(3))

	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestWithRetry_CustomPredicateAndExhaustion(t *testing.T) {
	cfg := fastConfig(4)
	cfg.ShouldRetry = func(error) bool { return true }

	calls := 0
	_, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("still failing")
	}, cfg)

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	cfg := fastConfig(5)
	cfg.InitialDelay = time.Second
	cfg.MaxDelay = time.Second
	cfg.ShouldRetry = func(error) bool { return true }

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := WithRetry(ctx, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("fail")
	}, cfg)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryConfig_Backoff(t *testing.T) {
	cfg := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, BackoffFactor: 2}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{4, 300 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := cfg.Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
