// Package scan finds script files under the input directory and turns them
// into parse jobs.
//
// Files are selected with doublestar include patterns and excluded with
// doublestar exclude patterns, both relative to the input root. Each match
// becomes a FileRef whose name is the file's base name. Enqueuing a file opens
// its segment store before the parse job is pushed. Watch mode keeps feeding
// files created or modified after startup through the same path, coalescing
// bursts of writes per file.
package scan
