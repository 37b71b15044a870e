// Package segmentstore persists extracted segments into one SQLite database
// per script name.
//
// In memory mode each store is a shared-cache in-memory database that lives
// as long as the Registry keeps its connection open; in disk mode each store
// is a file under the segments directory. The Registry maps script names to
// open stores, so the enumerator and the Parse stage both reach the same
// store for a given name.
package segmentstore
