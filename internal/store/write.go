package store

import (
	"context"
	"fmt"
	"time"

	"github.com/quarkfold/cutflow/internal/cutset"
	"github.com/quarkfold/cutflow/internal/qa"
)

// Timestamps are stored as RFC 3339 text in UTC.
const timeFormat = time.RFC3339Nano

// PutConfig writes a config row keyed by its content fingerprint and
// returns the fingerprint. Uses ON CONFLICT(fingerprint) DO NOTHING for
// idempotency - re-putting an identical config is a no-op.
//
// The fingerprint is the hash of the canonical body, so a pre-existing
// row holding different bytes under the same fingerprint means the
// database was corrupted; that is reported as an integrity error.
func (s *Store) PutConfig(ctx context.Context, cfg *cutset.Config, createdAt time.Time) (string, error) {
	body, err := cfg.CanonicalBody()
	if err != nil {
		return "", fmt.Errorf("put config: %w", err)
	}
	fp, err := cfg.Fingerprint()
	if err != nil {
		return "", fmt.Errorf("put config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO configs
		(fingerprint, name, body, container_width, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`,
		fp,
		cfg.Name,
		string(body),
		cfg.ContainerWidth,
		createdAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return "", fmt.Errorf("put config: %w", err)
	}

	// Read back the stored body. The row may predate this call; any
	// difference from the canonical bytes breaks the content address.
	var stored string
	err = s.db.QueryRowContext(ctx, `
		SELECT body FROM configs WHERE fingerprint = ?
	`, fp).Scan(&stored)
	if err != nil {
		return "", fmt.Errorf("put config: read back: %w", err)
	}
	if stored != string(body) {
		return "", &IntegrityError{
			Op:      "put config",
			Key:     fp,
			Message: "stored body differs from canonical body",
		}
	}

	return fp, nil
}

// CreateRun inserts a new run row. The referenced config must already be
// stored (foreign key). Run IDs are unique; reusing one is an integrity
// error.
func (s *Store) CreateRun(ctx context.Context, run cutset.Run) error {
	if !run.Status.Valid() {
		return fmt.Errorf("create run %s: invalid status %q", run.RunID, run.Status)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, config_fingerprint, source, started_at, finished_at, tracks_total, tracks_selected, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID,
		run.ConfigFingerprint,
		run.Source,
		run.StartedAt.UTC().Format(timeFormat),
		nullableTime(run.FinishedAt),
		run.TracksTotal,
		run.TracksSelected,
		string(run.Status),
	)
	if err != nil {
		if isConstraint(err) {
			return &IntegrityError{Op: "create run", Key: run.RunID, Err: err}
		}
		return fmt.Errorf("create run %s: %w", run.RunID, err)
	}

	return nil
}

// FinishRun records the terminal status and counters of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, status cutset.RunStatus, total, selected int64, finishedAt time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("finish run %s: invalid status %q", runID, status)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, tracks_total = ?, tracks_selected = ?, finished_at = ?
		WHERE run_id = ?
	`,
		string(status),
		total,
		selected,
		finishedAt.UTC().Format(timeFormat),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %s: rows affected: %w", runID, err)
	}
	if rowsAffected == 0 {
		return &NotFoundError{Code: CodeRunNotFound, Entity: "run", Key: runID}
	}

	return nil
}

// WriteCandidates appends a batch of candidates to a run in a single
// transaction. Sign, pt and eta are denormalized out of the record so
// the query layer can filter on indexed numeric columns; the full
// record is kept as canonical JSON for replay.
//
// Track indexes are unique within a run. A duplicate (run, track index)
// pair is an integrity error and aborts the whole batch.
func (s *Store) WriteCandidates(ctx context.Context, runID string, cands []cutset.Candidate) error {
	if len(cands) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write candidates: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candidates
		(run_id, track_index, cut_mask, pid_mask, selected, sign, pt, eta, observables)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write candidates: prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range cands {
		if c.Record == nil {
			return fmt.Errorf("write candidates: track %d has no record", c.TrackIndex)
		}
		obs, err := cutset.CanonicalRecord(c.Record)
		if err != nil {
			return fmt.Errorf("write candidates: track %d: %w", c.TrackIndex, err)
		}

		_, err = stmt.ExecContext(ctx,
			runID,
			c.TrackIndex,
			int64(c.CutMask),
			int64(c.PIDMask),
			boolToInt(c.Selected),
			c.Record.Sign,
			c.Record.Pt,
			c.Record.Eta,
			string(obs),
		)
		if err != nil {
			if isConstraint(err) {
				return &IntegrityError{
					Op:  "write candidates",
					Key: fmt.Sprintf("%s/%d", runID, c.TrackIndex),
					Err: err,
				}
			}
			return fmt.Errorf("write candidates: track %d: %w", c.TrackIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write candidates: commit: %w", err)
	}

	return nil
}

// WriteQACounts stores a QA snapshot for a run in a single transaction.
// Snapshots are written once at run finish; re-writing a bin is an
// integrity error.
func (s *Store) WriteQACounts(ctx context.Context, runID string, counts []qa.BinCount) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write qa counts: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO qa_counts
		(run_id, category, name, dim, bin, count)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write qa counts: prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range counts {
		_, err = stmt.ExecContext(ctx, runID, c.Category, c.Name, c.Dim, c.Bin, int64(c.Count))
		if err != nil {
			if isConstraint(err) {
				return &IntegrityError{
					Op:  "write qa counts",
					Key: fmt.Sprintf("%s/%s.%s[%d]", runID, c.Category, c.Name, c.Bin),
					Err: err,
				}
			}
			return fmt.Errorf("write qa counts: %s.%s: %w", c.Category, c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write qa counts: commit: %w", err)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullableTime renders a timestamp column value, NULL for the zero time.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeFormat)
}
