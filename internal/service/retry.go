package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gameia/engine/internal/repository"
	"github.com/sethvargo/go-retry"
)

const conflictRetryBase = 5 * time.Millisecond

// withConflictRetry re-runs fn while it fails on a goal version conflict.
// After maxRetries extra attempts the conflict surfaces as ErrConcurrencyConflict.
func withConflictRetry(ctx context.Context, maxRetries uint64, goalID string, fn func(ctx context.Context) error) error {
	b := retry.NewExponential(conflictRetryBase)
	b = retry.WithCappedDuration(200*time.Millisecond, b)
	b = retry.WithJitterPercent(20, b)
	b = retry.WithMaxRetries(maxRetries, b)

	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if errors.Is(err, repository.ErrVersionConflict) {
			slog.Debug("goal version conflict, retrying", "goal_id", goalID, "attempt", attempt)
			return retry.RetryableError(err)
		}
		return err
	})

	if errors.Is(err, repository.ErrVersionConflict) {
		return fmt.Errorf("%w: goal %s after %d attempts", ErrConcurrencyConflict, goalID, attempt)
	}
	return err
}
