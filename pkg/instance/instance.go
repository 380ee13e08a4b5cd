// Package instance names the running process for logs and lock ownership.
package instance

import (
	"os"
	"strings"
)

const (
	EnvInstanceID = "MEALTIME_INSTANCE_ID"
	defaultID     = "mealtime-0"
)

// ID prefers MEALTIME_INSTANCE_ID, then the hostname.
func ID() string {
	if id := strings.TrimSpace(os.Getenv(EnvInstanceID)); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return defaultID
}

// Owner returns a lock value that names this instance and is unique per acquisition.
func Owner(token string) string {
	return ID() + "/" + token
}
