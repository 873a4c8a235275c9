// Package qa accumulates diagnostic histograms for track evaluation runs.
//
// The sink receives named fills through the Recorder contract and bins
// them against a fixed axis catalogue mirroring the standard QA plots.
// Histograms are created lazily per (category, name) pair on first fill.
//
// Key design constraints:
//   - Fill is safe for concurrent use; the sink is the only shared
//     mutable resource during a run.
//   - Snapshot output is sorted and sparse (zero bins omitted) so that
//     persisted counts and golden files are byte-stable across runs.
//   - Fills whose name is not in the catalogue, or whose arity does not
//     match the axes, are counted as dropped rather than guessed at.
//   - Binning is half-open [min, max): a value equal to max lands in
//     the overflow bucket, matching the upstream plot conventions.
package qa
