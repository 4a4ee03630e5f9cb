package assistant

import (
	"context"
	"time"
)

// Sleeper waits between run status polls
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// timerSleeper waits on a real timer and returns early with the context's
// error when it is cancelled
type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
