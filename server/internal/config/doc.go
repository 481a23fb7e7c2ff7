// Package config loads and validates the flowlens-server YAML configuration
// and supports hot-reload of the config file via fsnotify.
package config
