package common

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunWithDeadline_OperationWins(t *testing.T) {
	got, err := RunWithDeadline(context.Background(), time.Second, func(ctx context.Context) (string, error) {
		return "result", nil
	})
	if err != nil {
		t.Fatalf("RunWithDeadline() error = %v", err)
	}
	if got != "result" {
		t.Errorf("got %q, want result", got)
	}
}

func TestRunWithDeadline_TimerWins(t *testing.T) {
	start := time.Now()
	got, err := RunWithDeadline(context.Background(), 20*time.Millisecond, func(ctx context.Context) (string, error) {
		select {
		case <-time.After(5 * time.Second):
			return "too late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrDeadlineExceeded) {
		t.Fatalf("error = %v, want ErrDeadlineExceeded", err)
	}
	if got != "" {
		t.Errorf("got %q, want zero value", got)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("returned after %v, want close to the 20ms budget", elapsed)
	}
}

func TestRunWithDeadline_OperationError(t *testing.T) {
	wantErr := errors.New("provider failure")
	_, err := RunWithDeadline(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want the operation's error", err)
	}
}

func TestRunWithDeadline_ZeroBudgetRunsInline(t *testing.T) {
	got, err := RunWithDeadline(context.Background(), 0, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Errorf("got (%d, %v), want (42, nil)", got, err)
	}
}

func TestRunWithDeadline_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := RunWithDeadline(ctx, time.Minute, func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunWithDeadline() did not honor parent cancellation")
	}
}
