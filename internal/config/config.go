// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// DefaultGracePeriod is how long a disconnected seat is held before
// removal. A policy constant, not an architectural limit; override with
// the GRACE_PERIOD environment variable (a Go duration string).
const DefaultGracePeriod = 5 * time.Minute

// GetEnv reads an environment variable or returns a default value.
func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetEnvInt parses an environment variable as integer, else a default value.
func GetEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// GetEnvDuration parses an environment variable as a duration, else a default value.
func GetEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// GracePeriod returns the configured disconnect grace window.
func GracePeriod() time.Duration {
	return GetEnvDuration("GRACE_PERIOD", DefaultGracePeriod)
}

// ListenAddr returns the HTTP listen address, honoring PORT.
func ListenAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}
