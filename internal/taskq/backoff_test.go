package taskq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
)

var errRateLimited = &googleapi.Error{Code: http.StatusTooManyRequests, Message: "quota exceeded"}

func TestRunWithRetry_AttemptBudget(t *testing.T) {
	attempts := 0
	_, err := RunWithRetry(context.Background(), func(context.Context) (int, error) {
		attempts++
		return 0, errRateLimited
	}, 3, time.Millisecond)

	if attempts != 4 {
		t.Errorf("expected 4 attempts (budget 3), got %d", attempts)
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		t.Errorf("expected the final rate-limit error to propagate, got %v", err)
	}
}

func TestRunWithRetry_ZeroRetries(t *testing.T) {
	attempts := 0
	boom := errors.New("boom")
	_, err := RunWithRetry(context.Background(), func(context.Context) (int, error) {
		attempts++
		return 0, boom
	}, 0, time.Millisecond)

	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt with zero retries, got %d", attempts)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected first failure to propagate unchanged, got %v", err)
	}
}

func TestRunWithRetry_NonRetryableFailsImmediately(t *testing.T) {
	attempts := 0
	fatal := errors.New("invalid argument")
	_, err := RunWithRetry(context.Background(), func(context.Context) (int, error) {
		attempts++
		return 0, fatal
	}, 5, time.Millisecond)

	if attempts != 1 {
		t.Errorf("non-retryable error should not be retried, got %d attempts", attempts)
	}
	if !errors.Is(err, fatal) {
		t.Errorf("expected fatal error, got %v", err)
	}
}

func TestRunWithRetry_SucceedsAfterBackoff(t *testing.T) {
	attempts := 0
	v, err := RunWithRetry(context.Background(), func(context.Context) (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errRateLimited
		}
		return 42, nil
	}, 5, time.Millisecond)

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRunWithRetry_DelaysDouble(t *testing.T) {
	// With initialDelay 10ms and three retries the waits are 10+20+40ms.
	const initial = 10 * time.Millisecond
	start := time.Now()
	attempts := 0
	RunWithRetry(context.Background(), func(context.Context) (int, error) {
		attempts++
		return 0, errRateLimited
	}, 3, initial)
	elapsed := time.Since(start)

	if want := 7 * initial; elapsed < want {
		t.Errorf("expected at least %v of accumulated doubling delay, got %v", want, elapsed)
	}
	if attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", attempts)
	}
}

func TestRunWithRetry_ContextCancelDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := RunWithRetry(ctx, func(context.Context) (int, error) {
		attempts++
		return 0, errRateLimited
	}, 10, time.Minute)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected wait to be abandoned after 1 attempt, got %d", attempts)
	}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"googleapi 429", &googleapi.Error{Code: 429}, true},
		{"googleapi 500", &googleapi.Error{Code: 500, Message: "internal"}, false},
		{"wrapped 429", fmt.Errorf("call failed: %w", &googleapi.Error{Code: 429}), true},
		{"quota message", errors.New("googleapi: Error: Quota exceeded for model"), true},
		{"resource exhausted", errors.New("rpc error: code = ResourceExhausted desc = resource has been exhausted"), true},
		{"rate limit message", errors.New("rate limit hit, slow down"), true},
		{"plain failure", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimited(tt.err); got != tt.want {
				t.Errorf("IsRateLimited(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
