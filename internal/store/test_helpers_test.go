package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/quarkfold/cutflow/internal/cutset"
	"github.com/quarkfold/cutflow/internal/track"
)

// createTestStore creates a file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestConfig builds a small valid config and returns it with its
// fingerprint.
func createTestConfig(t *testing.T, name string) (*cutset.Config, string) {
	t.Helper()
	cfg := &cutset.Config{
		Name:           name,
		ContainerWidth: 32,
		Cuts: []cutset.Cut{
			{Variable: "PtMin", Thresholds: []float64{0.4, 0.5}},
			{Variable: "EtaMax", Thresholds: []float64{0.8}},
			{Variable: "PIDnSigmaMax", Thresholds: []float64{3.0}},
		},
		PID: cutset.PIDConfig{Species: []string{"pi", "pr"}},
	}
	return cfg, cutset.MustFingerprint(cfg)
}

// createTestRun builds a running run row referencing the fingerprint.
func createTestRun(id, fingerprint string) cutset.Run {
	return cutset.Run{
		RunID:             id,
		ConfigFingerprint: fingerprint,
		Source:            "tracks.jsonl",
		StartedAt:         time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Status:            cutset.RunStatusRunning,
	}
}

// createTestCandidate builds a candidate with a minimal record. Pt and
// eta vary with the index so ordering tests can tell rows apart.
func createTestCandidate(trackIndex int64, selected bool) cutset.Candidate {
	return cutset.Candidate{
		TrackIndex: trackIndex,
		CutMask:    uint64(trackIndex)*3 + 1,
		PIDMask:    uint64(trackIndex) % 4,
		Selected:   selected,
		Record: &track.Record{
			Sign: 1,
			Pt:   0.5 + float64(trackIndex)*0.1,
			Eta:  -0.4 + float64(trackIndex)*0.05,
			TPCNSigma: map[track.Species]float64{
				track.SpeciesPion: 0.5,
			},
		},
	}
}

// putTestRun stores a config and a run referencing it.
func putTestRun(t *testing.T, s *Store, runID string) cutset.Run {
	t.Helper()
	ctx := context.Background()
	cfg, _ := createTestConfig(t, "store-test")
	fp, err := s.PutConfig(ctx, cfg, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("PutConfig() failed: %v", err)
	}
	run := createTestRun(runID, fp)
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}
	return run
}
