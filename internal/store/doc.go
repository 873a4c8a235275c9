// Package store provides SQLite-backed durable storage for cutflow
// runs.
//
// The store holds four tables:
//   - Configs: selection configurations, content-addressed by the
//     SHA-256 fingerprint of their canonical JSON body
//   - Runs: one row per pipeline execution, keyed by run ID
//   - Candidates: per-track evaluation results (masks, verdict, and the
//     full observable record as canonical JSON for replay)
//   - QA counts: sparse histogram bins snapshotted at run finish
//
// Key invariants:
//   - Config rows are immutable; a body that stops matching its
//     fingerprint is an integrity error (E301)
//   - (run_id, track_index) is unique; duplicate candidate writes are
//     integrity errors rather than silent upserts
//   - Reads are ordered deterministically (track_index for candidates,
//     category/name/bin for QA counts) so replay sees the run exactly
//     as it was written
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Canonical JSON and fingerprints come from internal/cutset, so the
// bytes the store persists are the same bytes the fingerprint covers.
package store
