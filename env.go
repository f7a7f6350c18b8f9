package ranger

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetEnv(name string, defaultValue string) string {
	value, ok := os.LookupEnv(name)
	if !ok {
		return defaultValue
	}
	return value
}

// GetEnvDuration parses the named variable with time.ParseDuration.  A bare
// integer is taken as seconds.
func GetEnvDuration(name string, defaultValue time.Duration) (time.Duration, error) {
	return GetEnvDurationIn(name, defaultValue, time.Second)
}

// GetEnvDurationIn is GetEnvDuration with bare integers counted in unit
func GetEnvDurationIn(name string, defaultValue, unit time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return defaultValue, nil
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(n) * unit, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}
