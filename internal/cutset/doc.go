// Package cutset defines the configuration model for track selection
// and its content-addressed identity.
//
// A Config is the portable description of one cut set: named cuts with
// threshold lists, the PID species block and the container width. The
// package owns the single validation path shared by compiled CUE
// configs, harness scenarios and hand-built test configs, and turns a
// valid Config into a finalized track.Selector.
//
// Identity is content-addressed: Fingerprint hashes the canonical JSON
// body under a versioned domain prefix. Two configs with the same
// fingerprint select identically.
//
// Key design constraints:
//   - Canonical JSON is byte-stable: sorted keys (UTF-16 code unit
//     order), NFC-normalized strings, no HTML escaping, minimal number
//     form. null never appears in a canonical body.
//   - Cut order is significant. Cuts map to container bits in listed
//     order, so reordering changes both the fingerprint and the masks.
//   - Species order is significant for the same reason: PID bits follow
//     the configured species order.
package cutset
