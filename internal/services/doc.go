// Package services defines shared utilities consumed by the pipeline stage
// handlers, the extractor, and the stores.
//
// Key responsibilities:
//   - Context helpers that stamp job identifiers, stage names, source file
//     names, and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so every failure carries
//     one of the pipeline error kinds (parse, build, merge conflict, type
//     mismatch, store, queue) alongside stage and operation context.
//   - Details, which unpacks a wrapped error into the fields the workflow
//     manager logs and persists on failed jobs.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
