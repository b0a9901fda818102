package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), func(_ context.Context) error {
		callCount++
		return nil
	})
	if err != nil {
		t.Errorf("Do() error = %v, want nil", err)
	}
	if callCount != 1 {
		t.Errorf("callCount = %d, want 1", callCount)
	}
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return errors.New("temporary failure")
		}
		return nil
	}, WithMaxAttempts(5), WithInitialDelay(1*time.Millisecond))
	if err != nil {
		t.Errorf("Do() error = %v, want nil", err)
	}
	if callCount != 3 {
		t.Errorf("callCount = %d, want 3", callCount)
	}
}

func TestDo_MaxRetriesExceeded(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), func(_ context.Context) error {
		callCount++
		return errors.New("persistent failure")
	}, WithMaxAttempts(3), WithInitialDelay(1*time.Millisecond))
	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Errorf("Do() error = %v, want ErrMaxRetriesExceeded", err)
	}
	if callCount != 3 {
		t.Errorf("callCount = %d, want 3", callCount)
	}
}

func TestDo_NonRetryableErrorStopsImmediately(t *testing.T) {
	callCount := 0
	sentinel := errors.New("auth failure")
	err := Do(context.Background(), func(_ context.Context) error {
		callCount++
		return sentinel
	}, WithMaxAttempts(5), WithInitialDelay(1*time.Millisecond),
		WithRetryCondition(func(err error) bool { return false }))
	if !errors.Is(err, sentinel) {
		t.Errorf("Do() error = %v, want sentinel", err)
	}
	if callCount != 1 {
		t.Errorf("callCount = %d, want 1", callCount)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	callCount := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, func(_ context.Context) error {
		callCount++
		return errors.New("fail")
	}, WithMaxAttempts(10), WithInitialDelay(50*time.Millisecond))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}

func TestIsTransientError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("connection refused"), true},
		{errors.New("503 Service Unavailable"), true},
		{errors.New("429 Too Many Requests"), true},
		{errors.New("i/o timeout"), true},
		{errors.New("401 Unauthorized"), false},
		{errors.New("invalid package name"), false},
		{nil, false},
	}
	for _, c := range cases {
		if got := IsTransientError(c.err); got != c.want {
			t.Errorf("IsTransientError(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}
