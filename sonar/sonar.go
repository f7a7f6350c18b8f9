// Package sonar turns HC-SR04 style echo timings into distance readings
package sonar

import (
	"fmt"
	"time"

	"github.com/merliot/ranger"
)

// Pulser fires the trigger line and times the echo line
type Pulser interface {
	Configure() error
	// Pulse holds the trigger low, high for at least 10µs, then low again,
	// and returns how long the echo line stayed high.  It returns zero when
	// no echo came back before the sensor timeout.
	Pulse() (time.Duration, error)
}

// Sensor implements ranger.Sensor on top of a Pulser
type Sensor struct {
	pulser Pulser
}

func New(p Pulser) *Sensor {
	return &Sensor{pulser: p}
}

func (s *Sensor) Configure() error {
	return s.pulser.Configure()
}

// Measure takes one reading.  An echo time under a microsecond, zero
// included, is ErrNoEcho, never a 0 cm reading.
func (s *Sensor) Measure() (ranger.Reading, error) {
	elapsed, err := s.pulser.Pulse()
	switch {
	case err != nil:
		return ranger.Reading{}, &ranger.Error{Kind: ranger.KindSensor, Err: err}
	case elapsed < 0:
		return ranger.Reading{}, &ranger.Error{Kind: ranger.KindSensor,
			Err: fmt.Errorf("negative echo time %s", elapsed)}
	case elapsed < time.Microsecond:
		return ranger.Reading{}, &ranger.Error{Kind: ranger.KindSensor, Err: ranger.ErrNoEcho}
	}
	return ranger.Reading{
		Elapsed: elapsed,
		Height:  Centimeters(elapsed.Microseconds()),
	}, nil
}

// Centimeters is us * 0.034 / 2 rounded down: sound covers 0.034 cm/µs and
// the echo goes there and back.  0.034 / 2 is 17/1000, kept in integers so the
// floor is exact.
func Centimeters(us int64) int {
	return int(us * 17 / 1000)
}
