// Package daemon coordinates the long-running musica runner.
//
// It wires configuration, the queue database, the segment store registry and
// the workflow manager into a single lifecycle with flock-based locking so two
// runners never share a data directory. The daemon enumerates or watches the
// input tree through the scan package, waits for the parse and dispatch
// queues to drain, and serves /api/status and /api/queue next to /metrics
// when an HTTP listen address is configured.
//
// Keep orchestration logic here: extraction and fan-out live in their own
// stage packages while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
