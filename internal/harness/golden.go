package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares its report against the
// golden file testdata/golden/<scenario.Name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error on harness-level failures; an expectation mismatch or
// a report drift fails t via goldie instead.
func RunWithGolden(t *testing.T, sc *Scenario) (*Result, error) {
	t.Helper()

	res, err := Run(sc)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, sc.Name, res)
	return res, nil
}

// AssertGolden compares an already-computed result against the golden file
// for the given scenario name. Useful when the caller ran the scenario
// itself and wants the comparison without re-running.
func AssertGolden(t *testing.T, name string, res *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(res.Report()))
}
