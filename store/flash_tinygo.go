//go:build tinygo

package store

import "machine"

// Onboard returns a Flash store at the start of the microcontroller's
// free flash, past the program image
func Onboard() *Flash {
	return NewFlash(machine.Flash, 0)
}
