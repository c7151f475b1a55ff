// Package logging builds slog loggers for scribed with console and JSON
// handlers, shared attribute helpers, and context-derived fields.
package logging
