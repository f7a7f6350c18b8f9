// Package deepsleep has the ways a node can spend the time between wakes
package deepsleep

import (
	"context"
	"time"
)

// Timer sleeps in-process.  It is the fallback when the board has no real
// low-power state to enter.
type Timer struct{}

func (Timer) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
