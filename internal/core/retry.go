package core

import (
	"context"
	"time"
)

// RetryPolicy is a bounded retry with a fixed delay between attempts.
// Spreadsheet files are transiently unreadable while a desktop editor saves
// them, so every file read in the service runs under one of these.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// Do runs op until it succeeds, the attempts are exhausted, or the context
// is cancelled. The delay sleeps are context-aware. Returns the last error.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if serr := sleep(ctx, p.Delay); serr != nil {
				return serr
			}
		}
		if err = op(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

// sleep pauses for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
