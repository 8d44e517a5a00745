// Package scheduler implements the recurring session scheduler: lazy
// materialization of rule occurrences, calendar range queries that merge
// concrete rows with virtual occurrences, and cascading series edits.
//
// The design is virtual-first: a rule with no end date never materializes a
// row just to be displayed. Reads compute occurrences on the fly from active
// rules; a row appears only when the user interacts with an occurrence
// (starts, edits, completes or cancels it). Canceled rows double as
// exceptions that suppress regeneration of their date.
//
// Every mutation is a single atomic operation against the store and is
// idempotent: materialization checks for an existing row before inserting,
// and cascades recompute from current state rather than a cached snapshot,
// so a double-tapped edit is harmless. No operation partially applies - all
// precondition checks run before the first write.
package scheduler
