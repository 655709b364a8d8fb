// Package config handles configuration loading, parsing, and validation
// from environment variables and YAML files. It provides type-safe access to
// server and task orchestrator settings, and a Watcher that hot-reloads the
// orchestrator durations when the configuration file changes.
package config
