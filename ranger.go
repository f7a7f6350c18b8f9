// Package ranger is the wake cycle of a battery powered distance node.  Each
// wake the node makes sure it has a collector identity, takes one ultrasonic
// reading, reports it, and goes back to deep sleep.  Nothing survives the
// sleep except the identity held in the IdentityStore.
package ranger

import (
	"context"
	"time"
)

// Reading is one sample from the distance sensor
type Reading struct {
	Elapsed time.Duration // echo round trip
	Height  int           // centimeters
}

// Measurement is the report sent to the collector for one wake cycle.  It
// lives only as long as the report exchange.
type Measurement struct {
	Identity Identity `json:"ioT"`
	Height   int      `json:"height"`
}

// Sensor takes distance readings
type Sensor interface {
	// Configure sets up the trigger and echo lines
	Configure() error
	// Measure takes one reading
	Measure() (Reading, error)
}

// Registrar obtains a new identity from the collector
type Registrar interface {
	Register(context.Context) (Identity, error)
}

// Reporter submits a measurement to the collector
type Reporter interface {
	Report(context.Context, Measurement) error
}

// Link associates the node with its network
type Link interface {
	Associate(context.Context) error
}

// Sleeper puts the node in its low-power state for d.  On hardware that
// resets out of deep sleep, Sleep does not return.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}
