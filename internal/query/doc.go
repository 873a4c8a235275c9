// Package query compiles typed candidate filters into parameterized
// SQL over the candidates table.
//
// The filter is the abstraction boundary between the CLI's flag surface
// and the storage schema: callers describe what they want in config
// vocabulary (variable names, species selectors, kinematic bounds) and
// the compiler resolves those to mask bits and indexed columns through
// the run's own configuration.
//
// Rules every compiled query obeys:
//   - All values are bound through ? placeholders, never interpolated
//   - Every query carries ORDER BY track_index ASC so results are
//     deterministic across runs and replays
//   - Mask predicates test whole variables: a variable cut N times
//     contributes all N bits to the test
package query
