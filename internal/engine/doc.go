// Package engine is the facade over simulations, persistence, and the
// sync queue. It owns the mapping from user operations to durable,
// syncable action records.
//
// # Concurrency model
//
// Mutations are serialized per simulation id: each loaded simulation
// carries its own mutex, and every operation runs as an exclusive
// section under it. Operations on different simulations proceed in
// parallel; within one simulation there is exactly one writer.
//
// # Recording
//
// Every successful mutation produces one sync action, stamped by the
// simulation's logical clock and checksummed over the resulting
// state. The action is appended to the durable log, then enqueued for
// the background drainer. Both writes are idempotent by action id, so
// a crash between them is repaired by re-recording.
//
// Consistency failures (a balance invariant or checksum breach) roll
// the simulation back to its pre-operation state before the error is
// returned; no action is recorded for a failed operation.
package engine
