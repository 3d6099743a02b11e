package poller

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	slept []time.Duration
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	f.slept = append(f.slept, d)
	return nil
}

func TestPollReturnsOnTerminal(t *testing.T) {
	clk := &fakeClock{}
	fetches := 0

	got, err := Poll(context.Background(), clk, Config{MaxAttempts: 5, Interval: time.Second},
		func(ctx context.Context) (string, error) {
			fetches++
			if fetches == 3 {
				return "ready", nil
			}
			return "processing", nil
		},
		func(s string) bool { return s == "ready" },
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if got != "ready" {
		t.Errorf("status = %q, want ready", got)
	}
	if fetches != 3 {
		t.Errorf("fetches = %d, want 3", fetches)
	}
	if len(clk.slept) != 2 {
		t.Errorf("sleeps = %d, want 2", len(clk.slept))
	}
}

func TestPollTimesOutAfterExactAttempts(t *testing.T) {
	clk := &fakeClock{}
	fetches := 0

	got, err := Poll(context.Background(), clk, Config{MaxAttempts: 3, Interval: time.Second},
		func(ctx context.Context) (string, error) {
			fetches++
			return "processing", nil
		},
		func(s string) bool { return false },
		nil,
		nil,
	)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Poll() error = %v, want ErrTimeout", err)
	}
	if fetches != 3 {
		t.Errorf("fetches = %d, want 3", fetches)
	}
	// No sleep after the final attempt.
	if len(clk.slept) != 2 {
		t.Errorf("sleeps = %d, want 2", len(clk.slept))
	}
	if got != "processing" {
		t.Errorf("last status = %q, want processing", got)
	}
}

func TestPollErrorStatus(t *testing.T) {
	clk := &fakeClock{}

	got, err := Poll(context.Background(), clk, Config{MaxAttempts: 5, Interval: time.Second},
		func(ctx context.Context) (string, error) { return "error", nil },
		func(s string) bool { return s == "ready" },
		func(s string) bool { return s == "error" },
		nil,
	)
	if !errors.Is(err, ErrFailedStatus) {
		t.Fatalf("Poll() error = %v, want ErrFailedStatus", err)
	}
	if got != "error" {
		t.Errorf("status = %q, want error", got)
	}
	if len(clk.slept) != 0 {
		t.Errorf("sleeps = %d, want 0", len(clk.slept))
	}
}

func TestPollFetchErrorReturnsImmediately(t *testing.T) {
	clk := &fakeClock{}
	fetchErr := errors.New("connection refused")
	fetches := 0

	_, err := Poll(context.Background(), clk, Config{MaxAttempts: 5, Interval: time.Second},
		func(ctx context.Context) (string, error) {
			fetches++
			return "", fetchErr
		},
		func(s string) bool { return true },
		nil,
		nil,
	)
	if !errors.Is(err, fetchErr) {
		t.Fatalf("Poll() error = %v, want %v", err, fetchErr)
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1", fetches)
	}
}

func TestPollProgressPanicDoesNotAbort(t *testing.T) {
	clk := &fakeClock{}
	var seen []int

	got, err := Poll(context.Background(), clk, Config{MaxAttempts: 3, Interval: time.Second},
		func(ctx context.Context) (string, error) { return "ready", nil },
		func(s string) bool { return s == "ready" },
		nil,
		func(attempt int, s string) {
			seen = append(seen, attempt)
			panic("listener bug")
		},
	)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if got != "ready" {
		t.Errorf("status = %q, want ready", got)
	}
	if len(seen) != 1 || seen[0] != 0 {
		t.Errorf("progress calls = %v, want [0]", seen)
	}
}

func TestPollCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clk := &cancellingClock{cancel: cancel}

	_, err := Poll(ctx, clk, Config{MaxAttempts: 5, Interval: time.Second},
		func(ctx context.Context) (string, error) { return "processing", nil },
		func(s string) bool { return false },
		nil,
		nil,
	)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Poll() error = %v, want context.Canceled", err)
	}
}

type cancellingClock struct {
	cancel context.CancelFunc
}

func (c *cancellingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.cancel()
	return ctx.Err()
}
