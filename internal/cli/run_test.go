package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarkfold/cutflow/internal/cutset"
	"github.com/quarkfold/cutflow/internal/pipeline"
	"github.com/quarkfold/cutflow/internal/store"
	"github.com/quarkfold/cutflow/internal/testutil"
)

// writeTrackFile drops a JSONL track file into dir and returns its path.
func writeTrackFile(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "tracks.jsonl")
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// runFixturePaths builds a config file, a two-track input and a store
// path. The first track passes pion-loose, the second fails PtMin.
func runFixturePaths(t *testing.T) (configFile, inputFile, dbPath string) {
	t.Helper()
	tmpDir := t.TempDir()
	configFile = writeConfigFile(t, tmpDir, "pion.cue", validConfigCUE)
	inputFile = writeTrackFile(t, tmpDir,
		`{"sign": 1, "pt": 0.8, "eta": 0.2}`,
		`{"sign": -1, "pt": 0.3, "eta": 0.2}`,
	)
	dbPath = filepath.Join(tmpDir, "cutflow.db")
	return configFile, inputFile, dbPath
}

func TestRunCommandText(t *testing.T) {
	configFile, inputFile, dbPath := runFixturePaths(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Database: dbPath}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", configFile, "--input", inputFile})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ Run complete:")
	assert.Contains(t, output, "Tracks: 2 total, 1 selected")
}

func TestRunCommandJSONAndPersistence(t *testing.T) {
	configFile, inputFile, dbPath := runFixturePaths(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json", Database: dbPath}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", configFile, "--input", inputFile})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.NotEmpty(t, resp.RunID)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var summary pipeline.RunSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, resp.RunID, summary.RunID)
	assert.Equal(t, int64(2), summary.TracksTotal)
	assert.Equal(t, int64(1), summary.TracksSelected)

	// The run row and candidates land in the store.
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	run, err := st.GetRun(ctx, resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, cutset.RunStatusComplete, run.Status)
	assert.Equal(t, summary.ConfigFingerprint, run.ConfigFingerprint)

	cands, err := st.Candidates(ctx, resp.RunID)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.True(t, cands[0].Selected)
	assert.False(t, cands[1].Selected)
}

func TestRunCommandFixedRunID(t *testing.T) {
	configFile, inputFile, dbPath := runFixturePaths(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Database: dbPath}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})

	opts := &RunOptions{
		RootOptions: rootOpts,
		ConfigPath:  configFile,
		Input:       inputFile,
		RunIDs:      testutil.NewFixedRunIDs("run-fixed-1"),
	}
	err := runPipeline(opts, cmd)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ Run complete: run-fixed-1")
}

func TestRunCommandMissingInput(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := writeConfigFile(t, tmpDir, "pion.cue", validConfigCUE)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Database: filepath.Join(tmpDir, "db")}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--config", configFile, "--input", filepath.Join(tmpDir, "missing.jsonl")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "open track source")
}

func TestRunCommandBadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := writeConfigFile(t, tmpDir, "bad.cue", `
config: {
	name:           "bad"
	containerWidth: 8
	cuts: [
		{variable: "Bogus", thresholds: [1.0]},
	]
}
`)
	inputFile := writeTrackFile(t, tmpDir, `{"sign": 1, "pt": 0.8, "eta": 0.2}`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Database: filepath.Join(tmpDir, "db")}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--config", configFile, "--input", inputFile})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "E102")
}

func TestRunCommandMalformedTrackFailsRun(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := writeConfigFile(t, tmpDir, "pion.cue", validConfigCUE)
	inputFile := writeTrackFile(t, tmpDir,
		`{"sign": 1, "pt": 0.8, "eta": 0.2}`,
		`{not json`,
	)
	dbPath := filepath.Join(tmpDir, "cutflow.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Database: dbPath}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--config", configFile, "--input", inputFile})

	err := cmd.Execute()
	require.Error(t, err)
	// Mid-stream data failure is a domain error, not a usage error.
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "parse record")
}

func TestRunCommandRequiresFlags(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
