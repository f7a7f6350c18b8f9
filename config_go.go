//go:build !tinygo

package ranger

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfig       = "RANGER_CONFIG"
	EnvSSID         = "RANGER_WIFI_SSID"
	EnvPassphrase   = "RANGER_WIFI_PASSPHRASE"
	EnvCollectorURL = "RANGER_COLLECTOR_URL"
	EnvRegisterPath = "RANGER_REGISTER_PATH"
	EnvMeasurePath  = "RANGER_MEASURE_PATH"
	EnvHTTPTimeout  = "RANGER_HTTP_TIMEOUT"
	EnvSensor       = "RANGER_SENSOR"
	EnvTriggerPin   = "RANGER_TRIGGER_PIN"
	EnvEchoPin      = "RANGER_ECHO_PIN"
	EnvDemoEcho     = "RANGER_DEMO_ECHO"
	EnvSleep        = "RANGER_SLEEP"
	EnvSleepCmd     = "RANGER_SLEEP_CMD"
	EnvIdentityPath = "RANGER_IDENTITY_PATH"
	EnvLinkTimeout  = "RANGER_LINK_TIMEOUT"
	EnvMQTTBroker   = "RANGER_MQTT_BROKER"
	EnvMQTTTopic    = "RANGER_MQTT_TOPIC"
	EnvLogLevel     = "RANGER_LOG_LEVEL"
)

// LoadConfig builds the node config.  Defaults are overlaid by the YAML file
// at path (or $RANGER_CONFIG when path is empty), then by the environment.
// A .env file in the working directory seeds the environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment")
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.WiFi.SSID = GetEnv(EnvSSID, cfg.WiFi.SSID)
	cfg.WiFi.Passphrase = GetEnv(EnvPassphrase, cfg.WiFi.Passphrase)
	cfg.Collector.URL = GetEnv(EnvCollectorURL, cfg.Collector.URL)
	cfg.Collector.RegisterPath = GetEnv(EnvRegisterPath, cfg.Collector.RegisterPath)
	cfg.Collector.MeasurePath = GetEnv(EnvMeasurePath, cfg.Collector.MeasurePath)
	cfg.Sensor.Driver = GetEnv(EnvSensor, cfg.Sensor.Driver)
	cfg.Sensor.Trigger = GetEnv(EnvTriggerPin, cfg.Sensor.Trigger)
	cfg.Sensor.Echo = GetEnv(EnvEchoPin, cfg.Sensor.Echo)
	cfg.Sleep.Command = GetEnv(EnvSleepCmd, cfg.Sleep.Command)
	cfg.Identity.Path = GetEnv(EnvIdentityPath, cfg.Identity.Path)
	cfg.MQTT.Broker = GetEnv(EnvMQTTBroker, cfg.MQTT.Broker)
	cfg.MQTT.Topic = GetEnv(EnvMQTTTopic, cfg.MQTT.Topic)
	cfg.LogLevel = GetEnv(EnvLogLevel, cfg.LogLevel)

	// bare integers are seconds, except the echo time
	durations := []struct {
		env  string
		dst  *time.Duration
		unit time.Duration
	}{
		{EnvHTTPTimeout, &cfg.Collector.Timeout, time.Second},
		{EnvDemoEcho, &cfg.Sensor.DemoEcho, time.Microsecond},
		{EnvSleep, &cfg.Sleep.Duration, time.Second},
		{EnvLinkTimeout, &cfg.Link.Timeout, time.Second},
	}
	for _, d := range durations {
		v, err := GetEnvDurationIn(d.env, *d.dst, d.unit)
		if err != nil {
			return err
		}
		*d.dst = v
	}
	return nil
}
