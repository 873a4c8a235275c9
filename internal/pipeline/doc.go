// Package pipeline orchestrates selection runs and replay verification.
//
// A run streams records from a TrackSource through one finalized
// selector, persists every evaluated candidate with its masks and
// observables, accumulates QA fills, and closes the run row with the
// final counters. Replay reloads a stored run, rebuilds the selector
// from the persisted config, re-evaluates the stored observables and
// reports every divergence from the persisted masks, verdicts and QA
// counts. A deterministic engine replays with zero divergences; any
// mismatch means the engine changed or the store was tampered with.
//
// Thread-safety model:
//   - Run evaluates records sequentially in input order on the calling
//     goroutine; nothing is shared across concurrent runs except the
//     store, which serializes writers itself.
//   - Cancellation is honored between records; an aborted run is
//     closed with status failed so the store never holds a run that
//     looks alive but is not.
package pipeline
