// Package store provides SQLite-backed durable storage for
// simulations and their sync logs.
//
// The sync log is append-only and is the source of truth: the
// simulations table is a snapshot cache that can always be rebuilt by
// replaying the log in order. Writes are idempotent by action id via
// ON CONFLICT DO NOTHING, so re-recording an action after a crash is
// harmless.
//
// All ordering uses seq (per-simulation logical clock), never wall
// time, and every log query orders by seq ASC, id ASC COLLATE BINARY
// so replays see identical sequences.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
