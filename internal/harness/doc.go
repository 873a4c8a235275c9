// Package harness provides conformance testing for cut configurations.
//
// The harness builds a selector from an inline cut configuration, runs a
// fixed set of track records through both evaluation paths and checks the
// outcomes against declared expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: pion_basic
//	description: "Pion candidate inside all bounds passes both paths."
//	config:
//	  name: pion-loose
//	  container_width: 8
//	  cuts:
//	    - variable: PtMin
//	      thresholds: [0.5]
//	  pid:
//	    species: [pi]
//	tracks:
//	  - sign: 1
//	    pt: 0.75
//	    eta: 0.2
//	    tpc_nsigma: {pi: 0.5}
//	expect:
//	  selected: [0]
//	  masks:
//	    - track: 0
//	      cut: "0x1"
//
// # Expectations
//
// The following expectation clauses are supported:
//
//   - selected: the exact set of track indexes the fast path accepts
//   - masks: cut and PID container masks of individual tracks, written
//     as decimal or 0x-prefixed hex literals
//   - diverge: probes for tracks where the fast path and the container
//     disagree, the documented gap between the two evaluations
//   - finalize_error: asserts selector construction fails and the error
//     contains the given fragment; no tracks are evaluated
//
// # Deterministic Reports
//
// A Result renders to a line-oriented text report derived only from the
// scenario inputs and the container bit math, so expected report bytes
// can be written by hand and compared as golden files:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/pion_basic.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
//
// Selector diagnostics are discarded during harness runs so reports stay
// byte-stable across environments.
package harness
