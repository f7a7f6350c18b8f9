//go:build tinygo

package deepsleep

import (
	"context"
	"machine"
	"time"
)

// Reset waits out the sleep and then resets the CPU, so the next wake starts
// from a clean boot with nothing in RAM carried over
type Reset struct{}

func (Reset) Sleep(ctx context.Context, d time.Duration) error {
	if err := (Timer{}).Sleep(ctx, d); err != nil {
		return err
	}
	machine.CPUReset()
	return nil
}
