package sonar

import "time"

// Demo is a simulated pulser.  It replays its echo times in order and then
// keeps returning the last one.  A zero entry simulates a missing echo.
type Demo struct {
	echoes []time.Duration
	next   int
}

func NewDemo(echoes ...time.Duration) *Demo {
	return &Demo{echoes: echoes}
}

func (d *Demo) Configure() error {
	return nil
}

func (d *Demo) Pulse() (time.Duration, error) {
	if len(d.echoes) == 0 {
		return 0, nil
	}
	echo := d.echoes[d.next]
	if d.next < len(d.echoes)-1 {
		d.next++
	}
	return echo, nil
}
