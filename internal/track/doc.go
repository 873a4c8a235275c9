// Package track specializes the selection framework to reconstructed
// charged-particle tracks.
//
// It owns the closed catalogue of fifteen selection variables (name,
// comparison kind, help text, fixed order), the track Record observable
// bag, the PID species catalogue, and the Selector engine that produces
// the fast minimal verdict and the two-part cut container.
//
// Key design constraints:
//   - The catalogue order defines ordinary bit order and is append-only.
//   - The Selector is built once (Register/SetSpecies/...; then Finalize)
//     and is read-only afterwards; a finalized Selector is safe for
//     concurrent evaluation on independent records.
//   - The fast path and the full container path deliberately disagree on
//     the 3D DCA definition (dcaXY alone vs the xy/z combination). Both
//     behaviors are load-bearing; do not unify them.
package track
