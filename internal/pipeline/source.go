package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/quarkfold/cutflow/internal/track"
)

// TrackSource yields records for a run in input order. Next returns
// io.EOF when the stream is exhausted; any other error aborts the run.
// Name labels the source in the run row for provenance.
type TrackSource interface {
	Name() string
	Next() (*track.Record, error)
	Close() error
}

// maxRecordBytes bounds a single input line. Records are small; a line
// this long is a malformed file, not a big track.
const maxRecordBytes = 1 << 20

// JSONLSource reads one JSON record per line. Blank lines are skipped;
// parse errors carry the file name and physical line number.
type JSONLSource struct {
	name    string
	f       *os.File
	scanner *bufio.Scanner
	line    int
}

// OpenJSONL opens a line-delimited JSON track file.
func OpenJSONL(path string) (*JSONLSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open track source: %w", err)
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	return &JSONLSource{name: path, f: f, scanner: scanner}, nil
}

// Name returns the path the source was opened from.
func (s *JSONLSource) Name() string {
	return s.name
}

// Next returns the next record, io.EOF at end of file.
func (s *JSONLSource) Next() (*track.Record, error) {
	for s.scanner.Scan() {
		s.line++
		text := strings.TrimSpace(s.scanner.Text())
		if text == "" {
			continue
		}
		r := &track.Record{}
		if err := json.Unmarshal([]byte(text), r); err != nil {
			return nil, fmt.Errorf("%s:%d: parse record: %w", s.name, s.line, err)
		}
		return r, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: read: %w", s.name, err)
	}
	return nil, io.EOF
}

// Close releases the underlying file.
func (s *JSONLSource) Close() error {
	return s.f.Close()
}

// SliceSource serves records from memory. Used by tests; the eval
// command evaluates its record directly instead.
type SliceSource struct {
	records []*track.Record
	idx     int
}

// NewSliceSource creates an in-memory source over the given records.
func NewSliceSource(records ...*track.Record) *SliceSource {
	return &SliceSource{records: records}
}

// Name labels in-memory sources uniformly.
func (s *SliceSource) Name() string {
	return "memory"
}

// Next returns the next record, io.EOF past the end.
func (s *SliceSource) Next() (*track.Record, error) {
	if s.idx >= len(s.records) {
		return nil, io.EOF
	}
	r := s.records[s.idx]
	s.idx++
	return r, nil
}

// Close is a no-op for in-memory sources.
func (s *SliceSource) Close() error {
	return nil
}
