package common

import (
	"context"
	"errors"
	"time"
)

// ErrDeadlineExceeded is returned by RunWithDeadline when the operation
// loses the race against its budget.
var ErrDeadlineExceeded = errors.New("operation deadline exceeded")

// RunWithDeadline races an operation against a timer. When the timer wins
// the operation's context is cancelled and its eventual result is discarded;
// the goroutine drains through the buffered channel so nothing leaks.
// A budget <= 0 runs the operation without an extra deadline.
func RunWithDeadline[T any](ctx context.Context, budget time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	if budget <= 0 {
		return op(ctx)
	}

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		value, err := op(opCtx)
		done <- outcome{value: value, err: err}
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case result := <-done:
		return result.value, result.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-timer.C:
		var zero T
		return zero, ErrDeadlineExceeded
	}
}
