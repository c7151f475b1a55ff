// Package config loads, normalizes, and validates scribed configuration.
//
// Configuration lives in a single TOML file. Defaults cover every field so a
// missing file yields a runnable (if provider-less) setup; provider API keys
// may also arrive via environment variables.
package config
