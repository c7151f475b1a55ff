// Package api defines the transport-neutral service layer and DTO types
// shared by the HTTP server and the CLI.
package api
