// Package main hosts the scribe CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the scribed daemon: session registration, pipeline stepping,
// speaker renaming, deletion, and configuration scaffolding. Subcommands stay
// thin; behavior lives in the internal packages and is surfaced here.
package main
