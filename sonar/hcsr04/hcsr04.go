//go:build tinygo

// Package hcsr04 adapts the TinyGo HC-SR04 driver to sonar.Pulser
package hcsr04

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/hcsr04"
)

type Pulser struct {
	dev hcsr04.Device
}

func New(trigger, echo machine.Pin) *Pulser {
	return &Pulser{dev: hcsr04.New(trigger, echo)}
}

func (p *Pulser) Configure() error {
	p.dev.Configure()
	return nil
}

// Pulse is the driver's ReadPulse, which already returns 0 on timeout
func (p *Pulser) Pulse() (time.Duration, error) {
	return time.Duration(p.dev.ReadPulse()) * time.Microsecond, nil
}
