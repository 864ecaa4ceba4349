// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file. ":memory:" keeps state
	// in-process only.
	DBPath string `koanf:"db_path"`

	// AuditQueueSize bounds the in-memory audit request queue.
	AuditQueueSize int `koanf:"audit_queue_size"`

	// AuditWorkerCount sets the number of point audit workers.
	AuditWorkerCount int `koanf:"audit_worker_count"`

	// AuditIntervalSeconds is how often every collection is scheduled
	// for a point audit. Zero disables the periodic sweep.
	AuditIntervalSeconds int `koanf:"audit_interval_seconds"`

	// TopControversialLimit caps the entries in a controversy report.
	TopControversialLimit int `koanf:"top_controversial_limit"`

	// ReadTimeoutSeconds and WriteTimeoutSeconds bound HTTP I/O.
	ReadTimeoutSeconds  int `koanf:"read_timeout_seconds"`
	WriteTimeoutSeconds int `koanf:"write_timeout_seconds"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention; it is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		DBPath:                "ranqr.db",
		AuditQueueSize:        1024,
		AuditWorkerCount:      runtime.NumCPU(),
		AuditIntervalSeconds:  300,
		TopControversialLimit: 20,
		ReadTimeoutSeconds:    10,
		WriteTimeoutSeconds:   30,
	}
}
