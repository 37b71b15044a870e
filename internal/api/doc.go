// Package api defines wire-format types and converters for the runner's HTTP
// surface and the CLI's JSON output. It translates queue jobs, workflow
// diagnostics and stored segments into transport-friendly DTOs so consumers
// do not couple to internal types.
//
// DTOs use camelCase JSON tags. Internal enums (queue.Stage, queue.Status,
// segment.Type) are exposed as lowercase strings and timestamps use RFC3339
// with milliseconds.
package api
