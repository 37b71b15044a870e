// Package workflow runs the per-stage worker pools that drain the job queues.
//
// The Manager owns one pool per stage that has a registered handler. Each
// pool runs a bounded number of workers under an errgroup; every worker
// claims one job at a time, runs the handler's Prepare and Execute steps
// while a heartbeat loop keeps the claim fresh, then deletes the job on
// success or marks it failed with a classified error message. A reclaimer
// returns running jobs with stale heartbeats to pending, and jobs left
// running by a crashed process are reset when the Manager starts.
//
// Stages whose handler is nil get no workers even when a concurrency is
// configured; their queues are consumed outside this process.
package workflow
