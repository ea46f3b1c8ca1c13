package instance

import (
	"os"
	"strings"
)

// EnvWorkerID overrides the identity a worker reports in logs and lock values.
const EnvWorkerID = "POS_WORKER_ID"

// GetID returns the worker identity: POS_WORKER_ID, then the hostname, then "worker-0".
func GetID() string {
	if id := strings.TrimSpace(os.Getenv(EnvWorkerID)); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
