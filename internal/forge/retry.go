package forge

import (
	"context"
	"strings"
	"time"
)

var rateLimitMarkers = []string{
	"rate limit",
	"secondary rate",
	"abuse detection",
	"too many requests",
	"try again later",
}

// isRateLimited reports whether err's message indicates a retryable
// rate-limit rejection from the forge.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// RetryBackoffUnit is the base of the exponential backoff (delay = unit *
// 2^n, n=1..3). A package-level var rather than a constant so tests can
// shrink it instead of taking the full 70s a default run would need.
var RetryBackoffUnit = 5 * time.Second

// WithRateLimitRetry retries fn up to 3 times with exponential backoff
// whenever fn's error looks like a rate-limit rejection. After three
// retries the last error is returned as-is.
func WithRateLimitRetry(ctx context.Context, fn func() error) error {
	err := fn()
	for n := 1; n <= 3; n++ {
		if err == nil || !isRateLimited(err) {
			return err
		}
		delay := RetryBackoffUnit * time.Duration(uint(1)<<uint(n))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		err = fn()
	}
	return err
}
