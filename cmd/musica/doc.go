// Package main hosts the musica CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the extraction pipeline, enqueues input
// directories, inspects and repairs the stage queues, lists stored segments,
// and scaffolds configuration. It centralizes configuration resolution so
// subcommands can focus on output instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
