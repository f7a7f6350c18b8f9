package ranger

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config is everything a node needs that differs between installations
type Config struct {
	WiFi      WiFiConfig      `yaml:"wifi"`
	Collector CollectorConfig `yaml:"collector"`
	Sensor    SensorConfig    `yaml:"sensor"`
	Sleep     SleepConfig     `yaml:"sleep"`
	Identity  IdentityConfig  `yaml:"identity"`
	Link      LinkConfig      `yaml:"link"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	LogLevel  string          `yaml:"log_level"`
}

type WiFiConfig struct {
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`
}

type CollectorConfig struct {
	URL          string        `yaml:"url"`
	RegisterPath string        `yaml:"register_path"`
	MeasurePath  string        `yaml:"measure_path"`
	Timeout      time.Duration `yaml:"timeout"`
}

type SensorConfig struct {
	// Driver is "rpi" for GPIO through periph.io or "demo" for a
	// simulated sensor
	Driver   string        `yaml:"driver"`
	Trigger  string        `yaml:"trigger"`
	Echo     string        `yaml:"echo"`
	DemoEcho time.Duration `yaml:"demo_echo"`
}

type SleepConfig struct {
	Duration time.Duration `yaml:"duration"`
	// Command, if set, is run to enter the low-power state.  "{seconds}"
	// in the command is replaced by the sleep duration in seconds.
	Command string `yaml:"command"`
}

type IdentityConfig struct {
	Path string `yaml:"path"`
}

type LinkConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type MQTTConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
}

func DefaultConfig() Config {
	return Config{
		Collector: CollectorConfig{
			RegisterPath: "/iot/",
			MeasurePath:  "/measurement/",
			Timeout:      10 * time.Second,
		},
		Sensor: SensorConfig{
			Driver:   "rpi",
			Trigger:  "GPIO4",
			Echo:     "GPIO5",
			DemoEcho: 588 * time.Microsecond,
		},
		Sleep: SleepConfig{
			Duration: time.Hour,
		},
		Identity: IdentityConfig{
			Path: "iotid.txt",
		},
		Link: LinkConfig{
			Timeout: 30 * time.Second,
		},
		MQTT: MQTTConfig{
			Topic: "ranger/measurement",
		},
		LogLevel: LevelInfo,
	}
}

func (c Config) Validate() error {
	if c.Collector.URL == "" {
		return errors.New("collector url is required")
	}
	u, err := url.Parse(c.Collector.URL)
	if err != nil {
		return fmt.Errorf("collector url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("collector url %q: want http(s)://host[:port]", c.Collector.URL)
	}
	if c.Collector.Timeout <= 0 {
		return fmt.Errorf("collector timeout must be positive, got %s", c.Collector.Timeout)
	}
	if c.Sleep.Duration <= 0 {
		return fmt.Errorf("sleep duration must be positive, got %s", c.Sleep.Duration)
	}
	if c.Link.Timeout <= 0 {
		return fmt.Errorf("link timeout must be positive, got %s", c.Link.Timeout)
	}
	switch c.Sensor.Driver {
	case "rpi":
		if c.Sensor.Trigger == "" || c.Sensor.Echo == "" {
			return errors.New("sensor trigger and echo pins are required")
		}
	case "demo":
	default:
		return fmt.Errorf("unknown sensor driver %q", c.Sensor.Driver)
	}
	if c.Identity.Path == "" {
		return errors.New("identity path is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
