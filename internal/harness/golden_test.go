package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarioGoldens runs every checked-in scenario fixture and compares
// its report against the matching golden file. Finalize-error scenarios
// are asserted directly; their reports embed error text that is pinned by
// the error tests, not by goldens.
func TestScenarioGoldens(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario fixtures found")

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			sc, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, name, sc.Name, "scenario name must match file name")

			if sc.Expect.FinalizeError != "" {
				res, err := Run(sc)
				require.NoError(t, err)
				assert.True(t, res.Pass, "errors: %v", res.Errors)
				assert.Contains(t, res.BuildError, sc.Expect.FinalizeError)
				return
			}

			res, err := RunWithGolden(t, sc)
			require.NoError(t, err)
			assert.True(t, res.Pass, "errors: %v", res.Errors)
		})
	}
}

func TestAssertGolden_ReportBytes(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "scenarios", "pion_basic.yaml"))
	require.NoError(t, err)

	res, err := Run(sc)
	require.NoError(t, err)
	require.True(t, res.Pass, "errors: %v", res.Errors)

	AssertGolden(t, sc.Name, res)
}
