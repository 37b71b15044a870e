// Package extractor turns parsed Musica scripts into persisted segments.
//
// Extraction walks the syntax tree produced by a Grammar. Every grammar rule
// has exactly one handler in a closed table: structural and lexical rules are
// silent, comment/include/plain lines persist a NonMessage immediately,
// message containers merge the single-field fragments returned by their atom
// children and persist the finished Message at the root of each message line.
// The top-level walk numbers segments by counting top-level nodes, not source
// lines.
//
// Stage wraps an Extractor as the parse-stage handler of the job pipeline: on
// success it pushes exactly one job onto the dispatch queue.
package extractor
