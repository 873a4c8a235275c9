package harness

import (
	"fmt"
	"strings"
)

// Report renders the result as line-oriented text for golden comparison.
// Every line derives from scenario inputs and container bit math, so the
// expected bytes can be written by hand. Fingerprints and timings are
// deliberately absent.
func (r *Result) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", r.ScenarioName)
	fmt.Fprintf(&b, "config: %s (width %d)\n", r.ConfigName, r.Width)
	if r.BuildError != "" {
		fmt.Fprintf(&b, "build error: %s\n", r.BuildError)
	}
	fmt.Fprintf(&b, "tracks: %d\n", len(r.Outcomes))
	for _, o := range r.Outcomes {
		fmt.Fprintf(&b, "  [%d] minimal=%t cut=%#x pid=%#x\n", o.Index, o.Minimal, o.CutMask, o.PIDMask)
	}
	if len(r.Errors) > 0 {
		b.WriteString("errors:\n")
		for _, msg := range r.Errors {
			fmt.Fprintf(&b, "  - %s\n", msg)
		}
	}
	verdict := "pass"
	if !r.Pass {
		verdict = "fail"
	}
	fmt.Fprintf(&b, "verdict: %s\n", verdict)
	return b.String()
}
