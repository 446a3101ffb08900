package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned by ReadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns the run with the given ID.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, skeleton, data_hash, created_seq FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &r.Skeleton, &r.DataHash, &r.CreatedSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns all runs ordered by created_seq, then id.
//
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, skeleton, data_hash, created_seq
		FROM runs
		ORDER BY created_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Skeleton, &r.DataHash, &r.CreatedSeq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadFrames returns a run's frames ordered by seq.
//
// Returns an empty slice (not nil) if the run has no frames.
func (s *Store) ReadFrames(ctx context.Context, runID string) ([]Frame, error) {
	return s.queryFrames(ctx, `
		SELECT run_id, seq, hash, input, snapshot
		FROM frames
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
}

// FindFramesByHash returns every recorded frame whose snapshot hash equals
// hash, across runs, ordered by run and seq.
func (s *Store) FindFramesByHash(ctx context.Context, hash string) ([]Frame, error) {
	return s.queryFrames(ctx, `
		SELECT run_id, seq, hash, input, snapshot
		FROM frames
		WHERE hash = ?
		ORDER BY run_id COLLATE BINARY ASC, seq ASC
	`, hash)
}

func (s *Store) queryFrames(ctx context.Context, query string, arg any) ([]Frame, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	frames := []Frame{}
	for rows.Next() {
		var f Frame
		var input, snap string
		if err := rows.Scan(&f.RunID, &f.Seq, &f.Hash, &input, &snap); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		f.Input = []byte(input)
		f.Snapshot = []byte(snap)
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}
	return frames, nil
}
