package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceCommandSelectedCandidate(t *testing.T) {
	dbPath, runID := seedRun(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Database: dbPath}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{runID, "0"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Trace: run run-seed-1, track 0")
	assert.Contains(t, output, "Config: pion-loose (fingerprint ")
	assert.Contains(t, output, "Verdict: selected")
	assert.Contains(t, output, "Cut mask: 0x3")
	assert.Contains(t, output, "PID mask: 0x0")
	assert.Contains(t, output, "[0] PtMin >= 0.5: observed 0.8, pass")
	assert.Contains(t, output, "[1] EtaMax |x| <= 0.8: observed 0.2, pass")
}

func TestTraceCommandRejectedCandidate(t *testing.T) {
	dbPath, runID := seedRun(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Database: dbPath}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{runID, "1"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Verdict: rejected")
	assert.Contains(t, output, "Cut mask: 0x2")
	assert.Contains(t, output, "[0] PtMin >= 0.5: observed 0.3, fail")
}

func TestTraceCommandJSON(t *testing.T) {
	dbPath, runID := seedRun(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json", Database: dbPath}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{runID, "1"})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, runID, resp.RunID)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result TraceResult
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, runID, result.RunID)
	assert.Equal(t, int64(1), result.TrackIndex)
	assert.Equal(t, "pion-loose", result.Config)
	assert.False(t, result.Selected)
	assert.Equal(t, uint64(0x2), result.CutMask)
	require.Len(t, result.Bits, 2)
	assert.False(t, result.Bits[0].Pass)
	assert.True(t, result.Bits[1].Pass)
}

// Stored masks are authoritative: after tampering, the decode reports
// the stored bits, not what the retained observables imply.
func TestTraceCommandDecodesStoredMask(t *testing.T) {
	dbPath, runID := seedRun(t)
	tamperCandidate(t, dbPath, runID, 1) // cut_mask 0x2 -> 0x3

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Database: dbPath}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{runID, "1"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Cut mask: 0x3")
	assert.Contains(t, output, "[0] PtMin >= 0.5: observed 0.3, pass")
}

func TestTraceCommandUnknownCandidate(t *testing.T) {
	dbPath, runID := seedRun(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Database: dbPath}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{runID, "99"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "E303")
}

func TestTraceCommandUnknownRun(t *testing.T) {
	dbPath, _ := seedRun(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Database: dbPath}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"ghost", "0"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "E302")
}

func TestTraceCommandBadIndex(t *testing.T) {
	dbPath, runID := seedRun(t)

	for _, bad := range []string{"abc", "1.5"} {
		buf := &bytes.Buffer{}
		rootOpts := &RootOptions{Format: "text", Database: dbPath}
		cmd := NewTraceCommand(rootOpts)
		cmd.SetOut(buf)
		cmd.SetErr(buf)
		cmd.SetArgs([]string{runID, bad})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, err.Error(), "track index must be a non-negative integer")
	}
}

func TestTraceCommandNegativeIndex(t *testing.T) {
	dbPath, runID := seedRun(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Database: dbPath}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{runID, "--", "-1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "non-negative")
}
