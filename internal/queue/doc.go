// Package queue persists pipeline jobs in SQLite and exposes one logical FIFO
// queue per stage.
//
// The Store manages the database connection, schema initialization, atomic
// job claims, heartbeat tracking, stuck-job recovery, and stats queries. A
// Queue is a per-stage handle used by producers (Push) and by consumers
// (Next), which suspends until a job is available through an in-process wake
// signal or the poll interval.
//
// A job is deleted once its handler succeeds. Failed jobs stay in the table
// with status failed and their error message until retried or cleared.
//
// The database is treated as transient storage for in-flight jobs rather than
// a long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package queue
