// internal/probe/retrychecker.go
package probe

import (
	"context"
	"time"
)

// RetryClassifier re-runs Inner while the outcome is DOWN. Other statuses are
// answers, not failures, and are returned immediately.
type RetryClassifier struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

func (r *RetryClassifier) Classify(ctx context.Context, domain string) Result {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last Result
	for i := 0; i < attempts; i++ {
		last = r.Inner.Classify(ctx, domain)
		if last.Status != Down {
			return last
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return last
			case <-time.After(r.Backoff):
			}
		}
	}
	if attempts > 1 {
		// annotate the cause so you can see it was a retry series
		last.Cause += " (after retries)"
	}
	return last
}
