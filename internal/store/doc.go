// Package store provides SQLite-backed durable storage for branchless runs.
//
// The store is an append-only log with two tables:
//   - runs: one row per program execution (program, mode, body count, final value)
//   - transitions: one row per decision the run made, keyed by (run_id, seq)
//
// # Ordering
//
// All ordering uses seq INTEGER from the engine's logical clock, never
// timestamps. Queries order by seq ASC, id ASC COLLATE BINARY so replay
// sees identical results.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Migrations are numbered and tracked in PRAGMA user_version. They only
// add indexes, so a log written by an older release stays readable.
//
// Run IDs are computed by ir.RunID; programs are stored as canonical JSON.
package store
