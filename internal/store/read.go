package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quarkfold/cutflow/internal/cutset"
	"github.com/quarkfold/cutflow/internal/qa"
	"github.com/quarkfold/cutflow/internal/track"
)

// GetConfig loads a stored config by fingerprint and verifies the body
// still hashes to it. Config rows are reached through run rows whose
// foreign key guarantees presence, so a miss means the database lost a
// row and is reported as an integrity error.
func (s *Store) GetConfig(ctx context.Context, fingerprint string) (*cutset.Config, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT body FROM configs WHERE fingerprint = ?
	`, fingerprint).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &IntegrityError{Op: "get config", Key: fingerprint, Message: "config row missing"}
	}
	if err != nil {
		return nil, fmt.Errorf("get config %s: %w", fingerprint, err)
	}

	var cfg cutset.Config
	if err := json.Unmarshal([]byte(body), &cfg); err != nil {
		return nil, fmt.Errorf("get config %s: decode body: %w", fingerprint, err)
	}

	fp, err := cfg.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("get config %s: refingerprint: %w", fingerprint, err)
	}
	if fp != fingerprint {
		return nil, &IntegrityError{
			Op:      "get config",
			Key:     fingerprint,
			Message: fmt.Sprintf("stored body hashes to %s", fp),
		}
	}

	return &cfg, nil
}

// GetRun loads a single run row.
func (s *Store) GetRun(ctx context.Context, runID string) (cutset.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, config_fingerprint, source, started_at, finished_at, tracks_total, tracks_selected, status
		FROM runs
		WHERE run_id = ?
	`, runID)

	run, err := scanRunRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return cutset.Run{}, &NotFoundError{Code: CodeRunNotFound, Entity: "run", Key: runID}
	}
	if err != nil {
		return cutset.Run{}, fmt.Errorf("get run %s: %w", runID, err)
	}

	return run, nil
}

// Candidates returns every candidate of a run ordered by track index.
// Returns an empty slice, not nil, for a run with no candidates.
func (s *Store) Candidates(ctx context.Context, runID string) ([]cutset.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT track_index, cut_mask, pid_mask, selected, observables
		FROM candidates
		WHERE run_id = ?
		ORDER BY track_index ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read candidates %s: %w", runID, err)
	}
	defer rows.Close()

	cands := []cutset.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("read candidates %s: %w", runID, err)
		}
		cands = append(cands, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read candidates %s: %w", runID, err)
	}

	return cands, nil
}

// Candidate returns one stored candidate of a run.
func (s *Store) Candidate(ctx context.Context, runID string, trackIndex int64) (cutset.Candidate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT track_index, cut_mask, pid_mask, selected, observables
		FROM candidates
		WHERE run_id = ? AND track_index = ?
	`, runID, trackIndex)

	c, err := scanCandidateRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return cutset.Candidate{}, &NotFoundError{
			Code:   CodeCandidateNotFound,
			Entity: "candidate",
			Key:    fmt.Sprintf("%s/%d", runID, trackIndex),
		}
	}
	if err != nil {
		return cutset.Candidate{}, fmt.Errorf("read candidate %s/%d: %w", runID, trackIndex, err)
	}

	return c, nil
}

// QACounts returns the stored QA bins of a run ordered by category,
// name, bin - the same order a fresh snapshot produces.
func (s *Store) QACounts(ctx context.Context, runID string) ([]qa.BinCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, name, dim, bin, count
		FROM qa_counts
		WHERE run_id = ?
		ORDER BY category ASC, name ASC, bin ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read qa counts %s: %w", runID, err)
	}
	defer rows.Close()

	counts := []qa.BinCount{}
	for rows.Next() {
		var (
			c     qa.BinCount
			count int64
		)
		if err := rows.Scan(&c.Category, &c.Name, &c.Dim, &c.Bin, &count); err != nil {
			return nil, fmt.Errorf("read qa counts %s: %w", runID, err)
		}
		c.Count = uint64(count)
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read qa counts %s: %w", runID, err)
	}

	return counts, nil
}

func scanRunRow(row *sql.Row) (cutset.Run, error) {
	var (
		run      cutset.Run
		started  string
		finished sql.NullString
		status   string
	)
	err := row.Scan(
		&run.RunID,
		&run.ConfigFingerprint,
		&run.Source,
		&started,
		&finished,
		&run.TracksTotal,
		&run.TracksSelected,
		&status,
	)
	if err != nil {
		return cutset.Run{}, err
	}

	run.StartedAt, err = time.Parse(timeFormat, started)
	if err != nil {
		return cutset.Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if finished.Valid {
		run.FinishedAt, err = time.Parse(timeFormat, finished.String)
		if err != nil {
			return cutset.Run{}, fmt.Errorf("parse finished_at: %w", err)
		}
	}
	run.Status = cutset.RunStatus(status)

	return run, nil
}

func scanCandidate(rows *sql.Rows) (cutset.Candidate, error) {
	var (
		c        cutset.Candidate
		cutMask  int64
		pidMask  int64
		selected int
		obs      string
	)
	if err := rows.Scan(&c.TrackIndex, &cutMask, &pidMask, &selected, &obs); err != nil {
		return cutset.Candidate{}, err
	}
	return decodeCandidate(c, cutMask, pidMask, selected, obs)
}

func scanCandidateRow(row *sql.Row) (cutset.Candidate, error) {
	var (
		c        cutset.Candidate
		cutMask  int64
		pidMask  int64
		selected int
		obs      string
	)
	if err := row.Scan(&c.TrackIndex, &cutMask, &pidMask, &selected, &obs); err != nil {
		return cutset.Candidate{}, err
	}
	return decodeCandidate(c, cutMask, pidMask, selected, obs)
}

func decodeCandidate(c cutset.Candidate, cutMask, pidMask int64, selected int, obs string) (cutset.Candidate, error) {
	c.CutMask = uint64(cutMask)
	c.PIDMask = uint64(pidMask)
	c.Selected = selected != 0

	var rec track.Record
	if err := json.Unmarshal([]byte(obs), &rec); err != nil {
		return cutset.Candidate{}, fmt.Errorf("track %d: decode observables: %w", c.TrackIndex, err)
	}
	c.Record = &rec

	return c, nil
}
