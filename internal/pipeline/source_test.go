package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarkfold/cutflow/internal/testutil"
	"github.com/quarkfold/cutflow/internal/track"
)

func writeTrackFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracks.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestOpenJSONL_MissingFile(t *testing.T) {
	_, err := OpenJSONL(filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.Error(t, err)
}

func TestJSONLSource_ReadsRecordsInOrder(t *testing.T) {
	path := writeTrackFile(t, `{"sign":1,"pt":0.8,"eta":0.2}

{"sign":-1,"pt":1.4,"eta":-0.5,"tpc_nsigma":{"pi":0.3}}
`)
	src, err := OpenJSONL(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, path, src.Name())

	first, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, first.Sign)
	assert.Equal(t, 0.8, first.Pt)

	second, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, -1, second.Sign)
	assert.Equal(t, 0.3, second.TPCNSigma[track.SpeciesPion])

	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestJSONLSource_ParseErrorCarriesLineNumber(t *testing.T) {
	path := writeTrackFile(t, `{"sign":1,"pt":0.8}
{not json}
`)
	src, err := OpenJSONL(path)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Next()
	require.NoError(t, err)

	_, err = src.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":2:")
	assert.Contains(t, err.Error(), "parse record")
}

func TestJSONLSource_EmptyFile(t *testing.T) {
	src, err := OpenJSONL(writeTrackFile(t, ""))
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSliceSource_ServesAllThenEOF(t *testing.T) {
	a := testutil.GoodRecord()
	b := testutil.GoodRecord(func(r *track.Record) { r.Pt = 1.2 })
	src := NewSliceSource(a, b)

	assert.Equal(t, "memory", src.Name())

	got, err := src.Next()
	require.NoError(t, err)
	assert.Same(t, a, got)

	got, err = src.Next()
	require.NoError(t, err)
	assert.Same(t, b, got)

	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, src.Close())
}
