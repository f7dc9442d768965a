package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	retryAttempts = 3
	retryBackoff  = 50 * time.Millisecond
)

// withRetry re-runs fn while SQLite reports the database as busy.
func withRetry(ctx context.Context, fn func() error) error {
	backoff := retryBackoff
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil || !isBusy(err) || attempt >= retryAttempts {
			return err
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
}

func isBusy(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database is busy") ||
		strings.Contains(msg, "sqlite_busy")
}
