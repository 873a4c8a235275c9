package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/quarkfold/cutflow/internal/cutset"
	"github.com/quarkfold/cutflow/internal/qa"
	"github.com/quarkfold/cutflow/internal/store"
	"github.com/quarkfold/cutflow/internal/track"
)

// QA category keys for the two fill passes: every record lands in
// QAAll, records passing the fast path additionally land in QASelected.
const (
	QAAll      = "all"
	QASelected = "selected"
)

// DefaultBatchSize is the number of candidates buffered per store
// write. Large enough to amortize the transaction, small enough that a
// failed run loses little.
const DefaultBatchSize = 500

// Pipeline runs cut sets over track streams and persists the outcome.
type Pipeline struct {
	store     *store.Store
	clock     Clock
	ids       RunIDSource
	rec       *qa.Histograms
	batchSize int
	log       *slog.Logger
}

// Option configures a Pipeline at construction.
type Option func(*Pipeline)

// WithClock replaces the wall clock used for lifecycle stamps.
func WithClock(c Clock) Option {
	return func(p *Pipeline) {
		p.clock = c
	}
}

// WithRunIDs replaces the run ID source.
func WithRunIDs(src RunIDSource) Option {
	return func(p *Pipeline) {
		p.ids = src
	}
}

// WithBatchSize sets how many candidates are buffered per store write.
// Values below one fall back to DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) {
		p.batchSize = n
	}
}

// WithRecorder injects the QA sink. The caller owns its lifetime: a
// reused sink accumulates across runs, and whatever it holds when the
// run finishes is what gets persisted. Default: a fresh sink per run.
func WithRecorder(rec *qa.Histograms) Option {
	return func(p *Pipeline) {
		p.rec = rec
	}
}

// WithLogger sets the logger for run progress and failures.
// Default: slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// New creates a Pipeline writing to the given store.
func New(s *store.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:     s,
		clock:     SystemClock{},
		ids:       UUIDSource{},
		batchSize: DefaultBatchSize,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunSummary is the caller-facing result of one completed run.
type RunSummary struct {
	RunID             string        `json:"run_id"`
	ConfigFingerprint string        `json:"config_fingerprint"`
	TracksTotal       int64         `json:"tracks_total"`
	TracksSelected    int64         `json:"tracks_selected"`
	Duration          time.Duration `json:"duration_ns"`
}

// Run evaluates every record from src under cfg and persists config,
// run row, candidates and QA counts.
//
// The config is fingerprinted and stored first, so the run row always
// references a persisted config. Records are evaluated in input order;
// the track index is the zero-based input position. Candidates are
// written in batches. On any mid-stream failure, including context
// cancellation, the run row is closed with status failed and the
// counters reached so far; the error is returned either way.
func (p *Pipeline) Run(ctx context.Context, cfg *cutset.Config, src TrackSource) (RunSummary, error) {
	sel, err := cutset.BuildSelector(cfg, track.WithLogger(p.log))
	if err != nil {
		return RunSummary{}, err
	}

	started := p.clock.Now()
	fp, err := p.store.PutConfig(ctx, cfg, started)
	if err != nil {
		return RunSummary{}, fmt.Errorf("pipeline: put config: %w", err)
	}

	runID := p.ids.NewRunID()
	if err := p.store.CreateRun(ctx, cutset.Run{
		RunID:             runID,
		ConfigFingerprint: fp,
		Source:            src.Name(),
		StartedAt:         started,
		Status:            cutset.RunStatusRunning,
	}); err != nil {
		return RunSummary{}, fmt.Errorf("pipeline: create run: %w", err)
	}

	p.log.Info("run started",
		"run_id", runID,
		"config", cfg.Name,
		"fingerprint", fp,
		"source", src.Name(),
	)

	rec := p.rec
	if rec == nil {
		rec = qa.New()
	}
	batchSize := p.batchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	var (
		total    int64
		selected int64
	)
	batch := make([]cutset.Candidate, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.store.WriteCandidates(ctx, runID, batch); err != nil {
			return fmt.Errorf("write candidates: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	fail := func(cause error) (RunSummary, error) {
		// The close must survive whatever cancelled the run.
		finCtx := context.WithoutCancel(ctx)
		if ferr := p.store.FinishRun(finCtx, runID, cutset.RunStatusFailed, total, selected, p.clock.Now()); ferr != nil {
			p.log.Error("failed run left open", "run_id", runID, "error", ferr)
		}
		p.log.Error("run failed",
			"run_id", runID,
			"tracks_total", total,
			"error", cause,
		)
		return RunSummary{}, fmt.Errorf("pipeline: run %s: %w", runID, cause)
	}

	for {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		r, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(fmt.Errorf("read track %d: %w", total, err))
		}

		minimal := sel.IsSelectedMinimal(r)
		cuts, pid := sel.CutContainer(r)

		sel.FillQA(rec, QAAll, r)
		if minimal {
			sel.FillQA(rec, QASelected, r)
		}

		batch = append(batch, cutset.Candidate{
			TrackIndex: total,
			CutMask:    uint64(cuts),
			PIDMask:    uint64(pid),
			Selected:   minimal,
			Record:     r,
		})
		total++
		if minimal {
			selected++
		}

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return fail(err)
			}
		}
	}

	if err := flush(); err != nil {
		return fail(err)
	}

	if counts := rec.Snapshot(); len(counts) > 0 {
		if err := p.store.WriteQACounts(ctx, runID, counts); err != nil {
			return fail(fmt.Errorf("write qa counts: %w", err))
		}
	}

	finished := p.clock.Now()
	if err := p.store.FinishRun(ctx, runID, cutset.RunStatusComplete, total, selected, finished); err != nil {
		return fail(fmt.Errorf("finish run: %w", err))
	}

	p.log.Info("run complete",
		"run_id", runID,
		"tracks_total", total,
		"tracks_selected", selected,
		"duration", finished.Sub(started),
	)

	return RunSummary{
		RunID:             runID,
		ConfigFingerprint: fp,
		TracksTotal:       total,
		TracksSelected:    selected,
		Duration:          finished.Sub(started),
	}, nil
}
