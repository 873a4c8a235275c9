// Package selection provides the generic threshold-selection framework.
//
// A criterion is a (variable, comparison, threshold) triple. The package
// knows nothing about tracks: variables are opaque small integers owned by
// the caller's catalogue. It owns criterion registration order, threshold
// collapsing, the pass/fail comparison semantics, and bit packing into a
// Mask of host-declared width.
//
// Key design constraints:
//   - Registration order defines bit order; the bit cursor advances once
//     per evaluated criterion whether or not the bit is set.
//   - Comparisons are plain IEEE float64 comparisons. NaN fails every
//     comparison kind, including Equal.
//   - Width accounting is checked once, at finalize time, never during
//     per-record evaluation.
package selection
