// Package metrics exposes Prometheus instrumentation for the musica pipeline.
//
// A Metrics value owns its own registry so tests and multiple pipelines in
// one process never collide on the default registerer. Every recording
// method is safe on a nil receiver, which lets callers treat metrics as
// optional. Server publishes the registry over HTTP alongside any extra
// handlers the caller mounts.
package metrics
