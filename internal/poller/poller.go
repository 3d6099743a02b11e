// Package poller provides a bounded fixed-interval polling primitive for
// remote statuses that converge asynchronously (media processing, post-launch
// verification). Unlike the platform client's backoff, the interval here is
// fixed: the remote state is expected to settle, not to be throttling us.
package poller

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout means attempts exhausted without a terminal status.
	ErrTimeout = errors.New("poll timed out before reaching terminal status")
	// ErrFailedStatus means the remote object reached an error state.
	ErrFailedStatus = errors.New("poll reached error status")
)

// Clock abstracts sleeping so tests can fast-forward virtual time.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func NewClock() Clock { return realClock{} }

type Config struct {
	MaxAttempts int
	Interval    time.Duration
}

// Poll invokes fetch up to cfg.MaxAttempts times, sleeping cfg.Interval
// between attempts. It returns the first status for which isTerminal holds,
// ErrFailedStatus as soon as isError matches, and ErrTimeout once attempts
// exhaust. onProgress is an optional side channel; its panics never abort
// polling.
func Poll[T any](
	ctx context.Context,
	clk Clock,
	cfg Config,
	fetch func(ctx context.Context) (T, error),
	isTerminal func(T) bool,
	isError func(T) bool,
	onProgress func(attempt int, status T),
) (T, error) {
	var last T

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		status, err := fetch(ctx)
		if err != nil {
			return last, err
		}
		last = status

		notifyProgress(onProgress, attempt, status)

		if isError != nil && isError(status) {
			return status, ErrFailedStatus
		}
		if isTerminal(status) {
			return status, nil
		}

		if attempt < cfg.MaxAttempts-1 {
			if err := clk.Sleep(ctx, cfg.Interval); err != nil {
				return last, err
			}
		}
	}

	return last, ErrTimeout
}

func notifyProgress[T any](onProgress func(int, T), attempt int, status T) {
	if onProgress == nil {
		return
	}
	defer func() { _ = recover() }()
	onProgress(attempt, status)
}
