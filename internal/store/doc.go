// Package store provides SQLite-backed durable storage for the planner.
//
// Three concerns live here:
//   - Recurrence rules: created once, lifetime fields (active, until,
//     default overrides) mutated by cascading edits, never hard-deleted.
//   - Scheduled sessions: concrete rows, including canceled exception rows
//     that suppress regeneration of a rule occurrence.
//   - Execution logs: an append-only step log per execution attempt, replayed
//     by the workout state machine to resume after interruption.
//
// # Idempotency
//
// Every insert uses ON CONFLICT DO NOTHING, and two partial unique indexes
// carry the scheduler's invariants into the schema:
//   - UNIQUE(rule_id, scheduled_for): one concrete row per rule occurrence,
//     so double-tapped materialization cannot duplicate a session.
//   - UNIQUE(session_id) WHERE status='active': at most one active execution
//     log per session.
//
// # Ordering
//
// Range reads order by day then id COLLATE BINARY; step reads order by the
// per-log append index. Replay over the same log always sees the same
// sequence.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
