// Package config loads and validates application settings from environment
// variables (TASKFLOW_ prefix), an optional config.yaml, and built-in defaults.
package config
