// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server  ServerConfig
	Sources SourcesConfig
	Watcher WatcherConfig
	Reload  ReloadConfig
	Events  EventsConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8889)
	Port int `env:"SERVER_PORT" default:"8889"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// SourcesConfig holds the workbook allow-list.
type SourcesConfig struct {
	// Paths is the comma-separated list of workbook files to serve (required).
	// Relative paths are resolved against the working directory at startup.
	Paths []string `env:"WORKBOOK_PATHS" required:"true"`
}

// WatcherConfig holds filesystem watcher settings.
type WatcherConfig struct {
	// Debounce is the minimum elapsed time between two accepted reload
	// triggers (default: 3s)
	Debounce time.Duration `env:"WATCH_DEBOUNCE" default:"3s"`

	// Settle is the pause after an observed change before re-reading, so the
	// external writer can finish flushing (default: 500ms)
	Settle time.Duration `env:"WATCH_SETTLE" default:"500ms"`
}

// ReloadConfig holds ingestion retry settings.
type ReloadConfig struct {
	// Attempts is the number of whole-pipeline reload attempts (default: 3)
	Attempts int `env:"RELOAD_ATTEMPTS" default:"3"`

	// Delay is the pause between reload attempts (default: 1s)
	Delay time.Duration `env:"RELOAD_DELAY" default:"1s"`

	// ReadAttempts is the number of attempts for a single file or sheet read (default: 3)
	ReadAttempts int `env:"READ_ATTEMPTS" default:"3"`

	// ReadDelay is the pause between read attempts (default: 300ms)
	ReadDelay time.Duration `env:"READ_DELAY" default:"300ms"`

	// SaveSettle is the pause after a successful save before reloading (default: 500ms)
	SaveSettle time.Duration `env:"SAVE_SETTLE" default:"500ms"`
}

// EventsConfig holds push-notification stream settings.
type EventsConfig struct {
	// Poll is the interval at which each subscriber checks for a new cache
	// version (default: 1s)
	Poll time.Duration `env:"EVENTS_POLL" default:"1s"`

	// KeepAlive is the maximum idle time before a comment event is emitted to
	// keep proxies from closing the connection (default: 15s)
	KeepAlive time.Duration `env:"EVENTS_KEEPALIVE" default:"15s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log output format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
