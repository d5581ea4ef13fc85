package taskq

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
)

// rateLimitMarkers are message substrings that identify quota/rate failures
// when no structured status code is available.
var rateLimitMarkers = []string{
	"429",
	"rate limit",
	"resource_exhausted",
	"resource has been exhausted",
	"quota",
}

// IsRateLimited reports whether err is a transient rate-limit/quota failure
// worth backing off and retrying. This is the only error class the retry
// loop acts on; everything else fails the operation immediately.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// RunWithRetry invokes op, retrying rate-limited failures with exponentially
// doubling delays. The operation runs at most maxRetries+1 times; the wait
// before attempt i+1 is exactly double the wait before attempt i, starting
// at initialDelay. Non-rate-limit failures and retry exhaustion propagate
// unchanged. The wait is context-aware and never blocks sibling operations.
func RunWithRetry[T any](ctx context.Context, op func(context.Context) (T, error), maxRetries int, initialDelay time.Duration) (T, error) {
	delay := initialDelay
	for attempt := 0; ; attempt++ {
		v, err := op(ctx)
		if err == nil || attempt >= maxRetries || !IsRateLimited(err) {
			return v, err
		}
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, ctx.Err()
		}
		delay *= 2
	}
}
