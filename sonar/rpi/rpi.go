//go:build !tinygo

// Package rpi drives an HC-SR04 from Raspberry Pi GPIO through periph.io.
//
// Datasheet: https://cdn.sparkfun.com/datasheets/Sensors/Proximity/HCSR04.pdf
package rpi

import (
	"fmt"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

// EchoTimeout is how long Pulse waits for each echo edge.  The HC-SR04
// gives up after about 38ms.
const EchoTimeout = 40 * time.Millisecond

// Pulser implements sonar.Pulser.  Pin names are in the form gpioreg.ByName
// takes; on a Raspberry Pi "GPIO4" or the BCM number "4".
type Pulser struct {
	trigName string
	echoName string
	trig     gpio.PinIO
	echo     gpio.PinIO
}

func New(trigger, echo string) *Pulser {
	return &Pulser{trigName: trigger, echoName: echo}
}

func (p *Pulser) Configure() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	p.trig = gpioreg.ByName(p.trigName)
	if p.trig == nil {
		return fmt.Errorf("no GPIO trigger pin named: %s", p.trigName)
	}
	p.echo = gpioreg.ByName(p.echoName)
	if p.echo == nil {
		return fmt.Errorf("no GPIO echo pin named: %s", p.echoName)
	}
	if err := p.trig.Out(gpio.Low); err != nil {
		return fmt.Errorf("trigger pin %s: %w", p.trigName, err)
	}
	if err := p.echo.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return fmt.Errorf("echo pin %s: %w", p.echoName, err)
	}
	return nil
}

func (p *Pulser) Pulse() (time.Duration, error) {
	if p.trig == nil || p.echo == nil {
		return 0, fmt.Errorf("pulser not configured")
	}

	// Clear stale edges before the rising edge of the echo
	if err := p.echo.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return 0, err
	}

	if err := p.trig.Out(gpio.Low); err != nil {
		return 0, err
	}
	time.Sleep(2 * time.Microsecond)
	if err := p.trig.Out(gpio.High); err != nil {
		return 0, err
	}
	time.Sleep(10 * time.Microsecond)
	if err := p.trig.Out(gpio.Low); err != nil {
		return 0, err
	}

	if !p.echo.WaitForEdge(EchoTimeout) {
		return 0, nil
	}
	start := time.Now()

	if err := p.echo.In(gpio.PullDown, gpio.FallingEdge); err != nil {
		return 0, err
	}
	if !p.echo.WaitForEdge(EchoTimeout) {
		return 0, nil
	}
	return time.Since(start), nil
}
