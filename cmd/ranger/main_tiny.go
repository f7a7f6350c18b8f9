//go:build tinygo

package main

import (
	"context"
	"log/slog"
	"machine"
	"strconv"
	"time"

	"github.com/merliot/ranger"
	"github.com/merliot/ranger/collector"
	"github.com/merliot/ranger/deepsleep"
	"github.com/merliot/ranger/sonar"
	"github.com/merliot/ranger/sonar/hcsr04"
	"github.com/merliot/ranger/store"
	"github.com/merliot/ranger/tinynet"
)

// Set with -ldflags "-X main.ssid=... -X main.pass=... -X main.collectorURL=..."
var (
	ssid         string
	pass         string
	collectorURL string
	trigger      = "2"
	echo         = "3"
	sleep        = "1h"
	linkTimeout  = "30s"
)

func pin(name, value string) machine.Pin {
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Error("Bad pin number", "pin", name, "value", value)
		return machine.NoPin
	}
	return machine.Pin(n)
}

func duration(name, value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Error("Bad duration", "setting", name, "value", value, "using", fallback)
		return fallback
	}
	return d
}

func main() {
	// give the serial console time to attach
	time.Sleep(2 * time.Second)

	sleepFor := duration("sleep", sleep, time.Hour)

	client := collector.New(collector.Options{BaseURL: collectorURL})

	node := &ranger.Node{
		Sensor:    sonar.New(hcsr04.New(pin("trigger", trigger), pin("echo", echo))),
		Link:      tinynet.NewWiFi(ssid, pass, duration("linkTimeout", linkTimeout, tinynet.DefaultJoinTimeout)),
		Store:     store.Onboard(),
		Registrar: client,
		Reporter:  client,
		Sleeper:   deepsleep.Reset{},
		SleepFor:  sleepFor,
	}

	// Reset never returns, so this is a single wake
	ranger.NewRunner(node).Run(context.Background())
}
