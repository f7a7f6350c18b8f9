//go:build !tinygo

// Command ranger runs the distance node on a Linux board: measure, report to
// the collector, sleep, repeat.  Configuration comes from an optional YAML
// file ($RANGER_CONFIG), a .env file and RANGER_* environment variables.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/merliot/ranger"
	"github.com/merliot/ranger/collector"
	"github.com/merliot/ranger/deepsleep"
	"github.com/merliot/ranger/mqttpub"
	"github.com/merliot/ranger/sonar"
	"github.com/merliot/ranger/sonar/rpi"
	"github.com/merliot/ranger/store"
	"github.com/merliot/ranger/tinynet"
)

func main() {
	cfg, err := ranger.LoadConfig("")
	if err != nil {
		slog.Error("Bad configuration", "err", err)
		os.Exit(1)
	}
	if err := ranger.ConfigureLogging(cfg.LogLevel); err != nil {
		slog.Error("Bad configuration", "err", err)
		os.Exit(1)
	}

	node, err := newNode(cfg)
	if err != nil {
		slog.Error("Cannot build node", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := ranger.NewRunner(node)
	err = runner.Run(ctx)
	slog.Info("Stopped", "cycles", runner.Cycles(), "reason", err)
}

func newNode(cfg ranger.Config) (*ranger.Node, error) {
	log := slog.Default()

	var pulser sonar.Pulser
	switch cfg.Sensor.Driver {
	case "demo":
		pulser = sonar.NewDemo(cfg.Sensor.DemoEcho)
	default:
		pulser = rpi.New(cfg.Sensor.Trigger, cfg.Sensor.Echo)
	}

	client := collector.New(collector.Options{
		BaseURL:      cfg.Collector.URL,
		RegisterPath: cfg.Collector.RegisterPath,
		MeasurePath:  cfg.Collector.MeasurePath,
		Timeout:      cfg.Collector.Timeout,
		Log:          log,
	})

	var reporter ranger.Reporter = client
	if cfg.MQTT.Broker != "" {
		reporter = &ranger.Tee{
			Primary: client,
			Mirrors: []ranger.Reporter{
				mqttpub.New(cfg.MQTT.Broker, cfg.MQTT.Topic, cfg.Collector.Timeout),
			},
			Log: log,
		}
	}

	link, err := tinynet.NewProbe(cfg.Collector.URL, cfg.Link.Timeout)
	if err != nil {
		return nil, err
	}
	link.Log = log

	var sleeper ranger.Sleeper = deepsleep.Timer{}
	if cfg.Sleep.Command != "" {
		cmd, err := deepsleep.NewCommand(cfg.Sleep.Command)
		if err != nil {
			return nil, err
		}
		cmd.Log = log
		sleeper = cmd
	}

	return &ranger.Node{
		Sensor:    sonar.New(pulser),
		Link:      link,
		Store:     store.NewFile(cfg.Identity.Path),
		Registrar: client,
		Reporter:  reporter,
		Sleeper:   sleeper,
		SleepFor:  cfg.Sleep.Duration,
		Log:       log,
	}, nil
}
